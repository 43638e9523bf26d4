package catalog

import (
	"fmt"
	"net/url"

	"github.com/yathiraju/smartsale/internal/domain"
)

const (
	imageRepoUser = "yathiraju"
	imageRepo     = "smartsale-images"
	imageVersion  = "test"
)

// ImageURLForSKU derives the deterministic CDN location of a product image.
func ImageURLForSKU(sku string) string {
	return fmt.Sprintf("https://cdn.jsdelivr.net/gh/%s/%s@%s/products/%s.png",
		imageRepoUser, imageRepo, imageVersion, url.PathEscape(sku))
}

func resolveImage(p domain.Product) string {
	if p.SKU != "" {
		return ImageURLForSKU(p.SKU)
	}
	name := p.Name
	if name == "" {
		name = "Product"
	}
	return "https://via.placeholder.com/300x300?text=" + url.QueryEscape(name)
}
