package entity

type ImageState string

const (
	ImageUnset    ImageState = "unset"
	ImagePending  ImageState = "pending"
	ImageResolved ImageState = "resolved"
	ImageAbsent   ImageState = "absent"
)

// ImageRef is the post's image field. URL is set only in the resolved state.
type ImageRef struct {
	State ImageState `json:"state"`
	URL   string     `json:"url,omitempty"`
}

func Unset() ImageRef {
	return ImageRef{State: ImageUnset}
}

func Pending() ImageRef {
	return ImageRef{State: ImagePending}
}

func Resolved(url string) ImageRef {
	return ImageRef{State: ImageResolved, URL: url}
}

func Absent() ImageRef {
	return ImageRef{State: ImageAbsent}
}

// Terminal states are never overwritten.
func (r ImageRef) Terminal() bool {
	return r.State == ImageResolved || r.State == ImageAbsent
}

func (r ImageRef) Valid() bool {
	switch r.State {
	case ImageUnset, ImagePending, ImageAbsent:
		return r.URL == ""
	case ImageResolved:
		return r.URL != ""
	default:
		return false
	}
}

// URLOrNil returns the resolved address, nil in every other state.
func (r ImageRef) URLOrNil() *string {
	if r.State != ImageResolved {
		return nil
	}
	url := r.URL

	return &url
}
