package valueobjects

import (
	"fmt"
	"strings"
)

// Resource identifies a countable tenant resource gated by plan limits.
type Resource string

const (
	ResourceShops     Resource = "shops"
	ResourceEmployees Resource = "employees"
	ResourceProducts  Resource = "products"
)

var ValidResources = map[Resource]bool{
	ResourceShops:     true,
	ResourceEmployees: true,
	ResourceProducts:  true,
}

func ParseResource(value string) (Resource, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	resource := Resource(normalized)

	if !ValidResources[resource] {
		return "", fmt.Errorf("invalid resource: %s", value)
	}

	return resource, nil
}

func (r Resource) String() string {
	return string(r)
}
