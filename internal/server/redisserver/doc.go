// Package redisserver serves the vault over a RESP2 subset so Redis
// clients can tokenize without an HTTP stack.
//
// Commands:
//   - PING, ECHO, QUIT, AUTH, HELLO (answers NOPROTO), SELECT 0, CLIENT, COMMAND
//   - TV.TOKENIZE text..., TV.DETOKENIZE text...
//   - DBSIZE, INFO
//
// With an API key configured every command except PING, QUIT, AUTH and
// HELLO requires AUTH first. Vault failures reply with a generic error;
// details go to the log only.
package redisserver
