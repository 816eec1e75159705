// Command voicegrab is the CLI for the voice message correlation daemon:
// run it in the foreground, inspect its status, browse the download history,
// and manage configuration.
package main
