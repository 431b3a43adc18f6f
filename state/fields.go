package state

import (
	"os"

	"github.com/jmgilman/go/errors"
)

// Field keys accepted by Store.Update, Store.GetValue, and listener
// registration. The set is closed: unknown keys reject the whole update.
const (
	KeyCurrentFolder   = "currentFolder"
	KeySelectedImage   = "selectedImage"
	KeyFolderHistory   = "folderHistory"
	KeyCurrentTheme    = "currentTheme"
	KeyThumbnailSize   = "thumbnailSize"
	KeyPerformanceMode = "performanceMode"
	KeyMapZoom         = "mapZoom"
	KeyImageSortMode   = "imageSortMode"
	KeyImagesProcessed = "imagesProcessed"
	KeyErrorCount      = "errorCount"
)

// Thumbnail edge length bounds in pixels.
const (
	MinThumbnailSize = 50
	MaxThumbnailSize = 500
)

// Map zoom level bounds.
const (
	MinMapZoom = 1
	MaxMapZoom = 20
)

// fieldSpec describes one updatable field: how to validate an incoming
// value and how to read/write it on the state struct.
type fieldSpec struct {
	validate func(s *Store, v any) error
	get      func(st *ApplicationState) any
	set      func(st *ApplicationState, v any)
}

// fieldTable builds the closed field registry for a store. Validators that
// depend on store configuration (the theme set) read it through s.
func fieldTable() map[string]fieldSpec {
	return map[string]fieldSpec{
		KeyCurrentFolder: {
			validate: func(_ *Store, v any) error { return validateDirPath(KeyCurrentFolder, v) },
			get:      func(st *ApplicationState) any { return st.CurrentFolder },
			set:      func(st *ApplicationState, v any) { st.CurrentFolder = v.(string) },
		},
		KeySelectedImage: {
			validate: func(_ *Store, v any) error { return validateFilePath(KeySelectedImage, v) },
			get:      func(st *ApplicationState) any { return st.SelectedImage },
			set:      func(st *ApplicationState, v any) { st.SelectedImage = v.(string) },
		},
		KeyFolderHistory: {
			validate: func(_ *Store, v any) error {
				if _, ok := v.([]string); !ok {
					return errors.Newf(errors.CodeInvalidInput,
						"%s must be a string slice, got %T", KeyFolderHistory, v)
				}
				return nil
			},
			get: func(st *ApplicationState) any {
				dup := make([]string, len(st.FolderHistory))
				copy(dup, st.FolderHistory)
				return dup
			},
			set: func(st *ApplicationState, v any) {
				src := v.([]string)
				st.FolderHistory = make([]string, len(src))
				copy(st.FolderHistory, src)
			},
		},
		KeyCurrentTheme: {
			validate: func(s *Store, v any) error {
				name, ok := v.(string)
				if !ok {
					return errors.Newf(errors.CodeInvalidInput,
						"%s must be a string, got %T", KeyCurrentTheme, v)
				}
				if name == DefaultTheme {
					return nil
				}
				if _, ok := s.themes[name]; !ok {
					return errors.Newf(errors.CodeInvalidInput,
						"unknown theme %q", name)
				}
				return nil
			},
			get: func(st *ApplicationState) any { return st.CurrentTheme },
			set: func(st *ApplicationState, v any) { st.CurrentTheme = v.(string) },
		},
		KeyThumbnailSize: {
			validate: func(_ *Store, v any) error {
				return validateIntRange(KeyThumbnailSize, v, MinThumbnailSize, MaxThumbnailSize)
			},
			get: func(st *ApplicationState) any { return st.ThumbnailSize },
			set: func(st *ApplicationState, v any) { st.ThumbnailSize, _ = asInt(v) },
		},
		KeyPerformanceMode: {
			validate: func(_ *Store, v any) error {
				return validateEnum(KeyPerformanceMode, v,
					PerformanceModePerformance, PerformanceModeBalanced, PerformanceModeQuality)
			},
			get: func(st *ApplicationState) any { return st.PerformanceMode },
			set: func(st *ApplicationState, v any) { st.PerformanceMode = v.(string) },
		},
		KeyMapZoom: {
			validate: func(_ *Store, v any) error {
				return validateIntRange(KeyMapZoom, v, MinMapZoom, MaxMapZoom)
			},
			get: func(st *ApplicationState) any { return st.MapZoom },
			set: func(st *ApplicationState, v any) { st.MapZoom, _ = asInt(v) },
		},
		KeyImageSortMode: {
			validate: func(_ *Store, v any) error {
				return validateEnum(KeyImageSortMode, v,
					SortModeName, SortModeDate, SortModeSize, SortModeType)
			},
			get: func(st *ApplicationState) any { return st.ImageSortMode },
			set: func(st *ApplicationState, v any) { st.ImageSortMode = v.(string) },
		},
		KeyImagesProcessed: {
			validate: func(_ *Store, v any) error { return validateNonNegative(KeyImagesProcessed, v) },
			get:      func(st *ApplicationState) any { return st.ImagesProcessed },
			set:      func(st *ApplicationState, v any) { st.ImagesProcessed, _ = asInt(v) },
		},
		KeyErrorCount: {
			validate: func(_ *Store, v any) error { return validateNonNegative(KeyErrorCount, v) },
			get:      func(st *ApplicationState) any { return st.ErrorCount },
			set:      func(st *ApplicationState, v any) { st.ErrorCount, _ = asInt(v) },
		},
	}
}

// asInt coerces the numeric types callers realistically hand us. Floats
// must be integral.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func validateIntRange(key string, v any, lo, hi int) error {
	n, ok := asInt(v)
	if !ok {
		return errors.Newf(errors.CodeInvalidInput, "%s must be an integer, got %T", key, v)
	}
	if n < lo || n > hi {
		return errors.Newf(errors.CodeInvalidInput, "%s must be in [%d,%d], got %d", key, lo, hi, n)
	}
	return nil
}

func validateNonNegative(key string, v any) error {
	n, ok := asInt(v)
	if !ok {
		return errors.Newf(errors.CodeInvalidInput, "%s must be an integer, got %T", key, v)
	}
	if n < 0 {
		return errors.Newf(errors.CodeInvalidInput, "%s cannot be negative, got %d", key, n)
	}
	return nil
}

func validateEnum(key string, v any, allowed ...string) error {
	s, ok := v.(string)
	if !ok {
		return errors.Newf(errors.CodeInvalidInput, "%s must be a string, got %T", key, v)
	}
	for _, a := range allowed {
		if s == a {
			return nil
		}
	}
	return errors.Newf(errors.CodeInvalidInput, "%s must be one of %v, got %q", key, allowed, s)
}

// validateDirPath accepts the empty string (no folder) or a path naming an
// existing directory.
func validateDirPath(key string, v any) error {
	path, ok := v.(string)
	if !ok {
		return errors.Newf(errors.CodeInvalidInput, "%s must be a string, got %T", key, v)
	}
	if path == "" {
		return nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInvalidInput, "%s %q does not exist", key, path)
	}
	if !fi.IsDir() {
		return errors.Newf(errors.CodeInvalidInput, "%s %q is not a directory", key, path)
	}
	return nil
}

// validateFilePath accepts the empty string (no selection) or a path
// naming an existing regular file.
func validateFilePath(key string, v any) error {
	path, ok := v.(string)
	if !ok {
		return errors.Newf(errors.CodeInvalidInput, "%s must be a string, got %T", key, v)
	}
	if path == "" {
		return nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInvalidInput, "%s %q does not exist", key, path)
	}
	if fi.IsDir() {
		return errors.Newf(errors.CodeInvalidInput, "%s %q is a directory, not a file", key, path)
	}
	return nil
}
