// Package logger records interpreter events as newline delimited JSON so a
// session's activity can be summarized later.
package logger
