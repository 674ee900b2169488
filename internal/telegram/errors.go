package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	// ErrInvalidToken reports that the Bot API rejected the request (ok:false).
	ErrInvalidToken = errors.New("invalid token")
	// ErrNetwork reports a transport failure or an unreadable response.
	ErrNetwork = errors.New("network error")
	// ErrEmptyChatID reports a send attempted before a chat id is known.
	ErrEmptyChatID = errors.New("chat id is empty")
)

// SendError is returned by SendMessage. Description carries the server's
// explanation when there is one.
type SendError struct {
	ChatID      string
	Description string
	Err         error
}

func (e *SendError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("send message to chat %s: %s", e.ChatID, e.Description)
	}
	return fmt.Sprintf("send message to chat %s: %v", e.ChatID, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// APIError is an ok:false envelope returned by the Bot API.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Unwrap lets callers match API rejections with errors.Is(err, ErrInvalidToken).
func (e *APIError) Unwrap() error {
	return ErrInvalidToken
}

// isTransport decides whether err came from the network layer or from a
// response that was not a Bot API envelope.
func isTransport(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return true
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return true
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return true
	}
	return strings.Contains(err.Error(), "error do request")
}

// classify maps a client library error onto ErrNetwork or ErrInvalidToken.
// The token is scrubbed from the message since transport errors embed the
// request URL.
func classify(method, token string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrInvalidToken) {
		return err
	}
	cause := &redactedError{err: err, token: token}
	if isTransport(err) {
		return fmt.Errorf("%w: telegram %s: %w", ErrNetwork, method, cause)
	}
	return fmt.Errorf("%w: telegram %s: %w", ErrInvalidToken, method, cause)
}

type redactedError struct {
	err   error
	token string
}

func (e *redactedError) Error() string {
	msg := e.err.Error()
	if e.token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, e.token, RedactToken(e.token))
}

func (e *redactedError) Unwrap() error {
	return e.err
}
