// Package relay exposes the boiler link to network clients.
//
// Clients speak a line protocol. Each line is the hex encoding of a command
// byte followed by its parameters, terminated by CR or LF:
//
//	-> 51\n
//	<- 0102\n
//	-> 3000\n
//	<- !NoResponse: no response from boiler\n
//
// Successful responses are the payload in lowercase hex. Failures are a "!"
// followed by an identifier and a message; the connection stays open. A
// byte outside 0-9, a-f, A-F, CR and LF closes the connection without a
// reply, as does an unterminated line longer than the configured maximum.
//
// # Concurrency
//
// Relay.Run owns all client state on one goroutine and calls the Executor
// from there, so only one command is ever on the serial line. Reader and
// writer goroutines per connection pass bytes to and from the loop through
// events; the loop never blocks on a socket write.
//
// TCP clients arrive through the listener given to Run. WebSocketHandler
// attaches WebSocket clients to the same loop.
package relay
