package catalog

import "errors"

var ErrProductNotFound = errors.New("product not found")
var ErrFailedToFindProducts = errors.New("failed to find products")
var ErrFailedToFindCategories = errors.New("failed to find categories")
