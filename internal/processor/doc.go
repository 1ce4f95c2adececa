// Package processor coordinates the command-line modes of galleryexplorer.
// It wires the search orchestrator, the download manager, the gallery
// folder and the optional history store together, and hands off to the
// GUI when no command is given.
package processor
