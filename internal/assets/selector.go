// Package assets selects, downloads and places artwork files.
package assets

import (
	"metasync/internal/catalog"
)

// Policy is the selection and upgrade tuning for one artwork class.
type Policy struct {
	// Languages is the language priority for the first filtering pass,
	// preferred language first. Empty means no language filtering
	// (backgrounds).
	Languages []string

	PreferredVote float64
	RelaxedVote   float64
	VoteThreshold float64

	PreferredWidth  int
	PreferredHeight int
	MinWidth        int
	MinHeight       int
}

// SelectBest picks the best artwork candidate. Candidates are first narrowed
// to the highest-priority language with any matches, then walked through
// three widening tiers: preferred vote and dimensions, relaxed vote and
// minimum dimensions, minimum dimensions alone. Whatever tier matches first
// yields its best by (vote average, pixel area); when no tier matches the
// largest candidate wins outright. Returns false only for an empty input.
func SelectBest(images []catalog.Image, p Policy) (catalog.Image, bool) {
	if len(images) == 0 {
		return catalog.Image{}, false
	}

	pool := images
	for _, lang := range p.Languages {
		var matched []catalog.Image
		for _, img := range images {
			if img.Language == lang {
				matched = append(matched, img)
			}
		}
		if len(matched) > 0 {
			pool = matched
			break
		}
	}

	if best, ok := maxByVote(filter(pool, func(img catalog.Image) bool {
		return img.VoteAverage >= p.PreferredVote &&
			img.Width >= p.PreferredWidth && img.Height >= p.PreferredHeight
	})); ok {
		return best, true
	}

	if best, ok := maxByVote(filter(pool, func(img catalog.Image) bool {
		return img.VoteAverage >= p.RelaxedVote &&
			img.Width >= p.MinWidth && img.Height >= p.MinHeight
	})); ok {
		return best, true
	}

	if best, ok := maxByArea(filter(pool, func(img catalog.Image) bool {
		return img.Width >= p.MinWidth && img.Height >= p.MinHeight
	})); ok {
		return best, true
	}

	best, _ := maxByArea(pool)
	return best, true
}

func filter(images []catalog.Image, keep func(catalog.Image) bool) []catalog.Image {
	var out []catalog.Image
	for _, img := range images {
		if keep(img) {
			out = append(out, img)
		}
	}
	return out
}

func area(img catalog.Image) int {
	return img.Width * img.Height
}

func maxByVote(images []catalog.Image) (catalog.Image, bool) {
	if len(images) == 0 {
		return catalog.Image{}, false
	}
	best := images[0]
	for _, img := range images[1:] {
		if img.VoteAverage > best.VoteAverage ||
			(img.VoteAverage == best.VoteAverage && area(img) > area(best)) {
			best = img
		}
	}
	return best, true
}

func maxByArea(images []catalog.Image) (catalog.Image, bool) {
	if len(images) == 0 {
		return catalog.Image{}, false
	}
	best := images[0]
	for _, img := range images[1:] {
		if area(img) > area(best) {
			best = img
		}
	}
	return best, true
}
