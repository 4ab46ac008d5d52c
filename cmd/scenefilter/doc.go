// Command scenefilter is the CLI for inspecting and editing the local
// segment database and for talking to a running scenefilter daemon.
package main
