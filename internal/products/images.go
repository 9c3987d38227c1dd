package products

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
)

// uploadSet collects the blobs stored for one write so they can be applied
// to the record or removed again.
type uploadSet struct {
	image    *storage.Stored
	imageAlt *storage.Stored
	others   []storage.Stored
}

func (u *uploadSet) keys() []string {
	var keys []string
	if u.image != nil {
		keys = append(keys, u.image.Key)
	}
	if u.imageAlt != nil {
		keys = append(keys, u.imageAlt.Key)
	}
	for _, other := range u.others {
		keys = append(keys, other.Key)
	}
	return keys
}

// upload stores every file in images under the product id. Blobs stored
// before a failure stay recorded in u.
func (s *service) upload(ctx context.Context, productID uuid.UUID, images ProductImages, u *uploadSet) error {
	if images.Image != nil {
		stored, err := storage.PutUpload(ctx, s.store, productImagePrefix, productID, *images.Image)
		if err != nil {
			return err
		}
		u.image = &stored
	}
	if images.ImageAlt != nil {
		stored, err := storage.PutUpload(ctx, s.store, productImagePrefix, productID, *images.ImageAlt)
		if err != nil {
			return err
		}
		u.imageAlt = &stored
	}
	for _, file := range images.OtherImages {
		stored, err := storage.PutUpload(ctx, s.store, productImagePrefix, productID, file)
		if err != nil {
			return err
		}
		u.others = append(u.others, stored)
	}
	return nil
}

// apply writes the uploaded images onto product. keepURLs selects which of
// the product's current gallery images survive.
func (u *uploadSet) apply(product *models.Product, keepURLs []string) {
	if u.image != nil {
		product.ImageURL = &u.image.URL
		product.ImageKey = &u.image.Key
	}
	if u.imageAlt != nil {
		product.ImageAltURL = &u.imageAlt.URL
		product.ImageAltKey = &u.imageAlt.Key
	}
	if len(u.others) == 0 && len(keepURLs) == 0 {
		return
	}
	gallery := make([]models.ImageRef, 0, len(u.others)+len(keepURLs))
	for _, other := range u.others {
		gallery = append(gallery, models.ImageRef{URL: other.URL, Key: other.Key})
	}
	gallery = append(gallery, keptImages(product.OtherImages, keepURLs)...)
	product.OtherImages = gallery
}

// keptImages returns the entries of current whose URL is listed in keepURLs.
// URLs the product does not own are ignored.
func keptImages(current []models.ImageRef, keepURLs []string) []models.ImageRef {
	if len(keepURLs) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(keepURLs))
	for _, url := range keepURLs {
		wanted[url] = struct{}{}
	}
	out := make([]models.ImageRef, 0, len(keepURLs))
	for _, ref := range current {
		if _, ok := wanted[ref.URL]; ok {
			out = append(out, ref)
		}
	}
	return out
}

// supersededKeys lists the blobs of product that the pending update replaces.
func supersededKeys(product *models.Product, u *uploadSet, keepURLs []string) []string {
	var keys []string
	if u.image != nil && product.ImageKey != nil {
		keys = append(keys, *product.ImageKey)
	}
	if u.imageAlt != nil && product.ImageAltKey != nil {
		keys = append(keys, *product.ImageAltKey)
	}
	if len(u.others) == 0 && len(keepURLs) == 0 {
		return keys
	}
	kept := keptImages(product.OtherImages, keepURLs)
	keep := make(map[string]struct{}, len(kept))
	for _, ref := range kept {
		keep[ref.Key] = struct{}{}
	}
	for _, ref := range product.OtherImages {
		if _, ok := keep[ref.Key]; !ok {
			keys = append(keys, ref.Key)
		}
	}
	return keys
}

func imageKeys(product *models.Product) []string {
	var keys []string
	if product.ImageKey != nil {
		keys = append(keys, *product.ImageKey)
	}
	if product.ImageAltKey != nil {
		keys = append(keys, *product.ImageAltKey)
	}
	for _, ref := range product.OtherImages {
		keys = append(keys, ref.Key)
	}
	return keys
}
