package vision

type Origin string

const (
	OriginNone  Origin = "none"
	OriginNew   Origin = "new"
	OriginCache Origin = "cache"
)

type Selection struct {
	Image  string
	Origin Origin
}

// Fresh reports whether the selected image arrived with this request and
// therefore still has to be stored.
func (s Selection) Fresh() bool {
	return s.Origin == OriginNew
}

// SelectImage picks the image that accompanies a request. A new image always
// wins; a cached image is reused only when the utterance is visual; otherwise
// the request goes out text-only.
func SelectImage(newImage, cachedImage string, visual bool) Selection {
	if newImage != "" {
		return Selection{Image: newImage, Origin: OriginNew}
	}
	if visual && cachedImage != "" {
		return Selection{Image: cachedImage, Origin: OriginCache}
	}
	return Selection{Origin: OriginNone}
}
