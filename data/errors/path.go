package errors

func InvalidPath(path string) error {
	return newError(ErrInvalidPath, nil, "'%s'", path)
}

func NotFound(path string) error {
	return newError(ErrNotExist, nil, "'%s' not found in any source", path)
}

func NotDirectory(path string) error {
	return newError(ErrNotDirectory, nil, "'%s'", path)
}
