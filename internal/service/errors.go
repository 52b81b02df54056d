package service

import "errors"

var (
	// ErrPersonaBootstrap means the fairy profile could not be verified or created.
	ErrPersonaBootstrap = errors.New("persona bootstrap failed")
	// ErrEmptyComment is returned for blank comment content.
	ErrEmptyComment = errors.New("comment content is empty")
	// ErrCommentTooLong is returned when content exceeds MaxCommentRunes.
	ErrCommentTooLong = errors.New("comment content is too long")
	// ErrAlreadyCommented means the fairy already has a comment on the post.
	// Callers treat it as success.
	ErrAlreadyCommented = errors.New("persona already commented on post")
	// ErrPublish wraps store failures while inserting the fairy comment.
	ErrPublish = errors.New("publish comment failed")
	// ErrPostNotFound is returned when the target post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrCommentNotFound is returned when the target comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrInvalidPost is returned for posts failing validation.
	ErrInvalidPost = errors.New("invalid post")
	// ErrInvalidComment is returned for comments failing validation.
	ErrInvalidComment = errors.New("invalid comment")
	// ErrInvalidLike is returned for like requests failing validation.
	ErrInvalidLike = errors.New("invalid like")
	// ErrInvalidUpload is returned for files failing upload validation.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrStorageDisabled is returned when uploads are attempted without storage.
	ErrStorageDisabled = errors.New("object storage is not configured")
)
