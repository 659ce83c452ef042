// Command bindrs synchronizes a directory tree bidirectionally between a
// local host and a remote host reachable over SSH.
package main

func main() {
	Execute()
}
