package site

import "errors"

var (
	ErrSiteNotFound = errors.New("job site not found")
	ErrSiteInactive = errors.New("job site is inactive")
)
