package dto

import "io"

// ImageUpload is the optional file part of a create-post request.
type ImageUpload struct {
	Data        io.Reader
	FileName    string
	ContentType string
	Size        int64
}

type CreatePost struct {
	AuthorID string
	Text     string
	Image    *ImageUpload
}

type ListPosts struct {
	Limit  uint64
	Offset uint64
}
