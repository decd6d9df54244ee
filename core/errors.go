package core

import "errors"

var (
	// ErrNotFound marks a referenced agent, post, or community that does not
	// exist. Fatal to the current operation, not to the process.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateVote marks a second vote attempt on an already-voted post.
	ErrDuplicateVote = errors.New("already voted on this post")

	// ErrWakeInProgress marks an attempt to start a cycle while another cycle
	// holds the agent's wake lock.
	ErrWakeInProgress = errors.New("wake cycle already in progress")

	// ErrUnsupportedProvider marks an LLM provider name outside the fixed
	// adapter set. A configuration error, not a runtime condition.
	ErrUnsupportedProvider = errors.New("unsupported llm provider")
)
