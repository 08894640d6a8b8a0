package fileshare

// Category classifies a shared file. Each known category owns exactly one
// file extension; everything else collapses to CategoryAll.
type Category int

const (
	CategoryAll               Category = 0
	CategoryFilm              Category = 1
	CategoryScreenshotPrivate Category = 2
)

const (
	extensionFilm       = "demo"
	extensionScreenshot = "jpg"
)

// CategoryFromInt converts an untrusted integer into a Category.
// Values outside the known set map to CategoryAll.
func CategoryFromInt(v int64) Category {
	switch c := Category(v); c {
	case CategoryFilm, CategoryScreenshotPrivate:
		return c
	default:
		return CategoryAll
	}
}

// Extension returns the file extension for the category, without the dot.
// Categories without an extension return an empty string.
func (c Category) Extension() string {
	switch c {
	case CategoryFilm:
		return extensionFilm
	case CategoryScreenshotPrivate:
		return extensionScreenshot
	default:
		return ""
	}
}

// CategoryForExtension maps an extension (without the dot) back to its
// category. Matching is exact and case-sensitive.
func CategoryForExtension(ext string) Category {
	switch ext {
	case extensionFilm:
		return CategoryFilm
	case extensionScreenshot:
		return CategoryScreenshotPrivate
	default:
		return CategoryAll
	}
}

func (c Category) String() string {
	switch c {
	case CategoryFilm:
		return "film"
	case CategoryScreenshotPrivate:
		return "screenshot_private"
	default:
		return "all"
	}
}
