package assets

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"metasync/internal/catalog"
)

func testPolicy() Policy {
	return Policy{
		Languages:       []string{"en", "de"},
		PreferredVote:   5.0,
		RelaxedVote:     3.5,
		VoteThreshold:   5.0,
		PreferredWidth:  2000,
		PreferredHeight: 3000,
		MinWidth:        1000,
		MinHeight:       1500,
	}
}

func TestSelectBest(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		images []catalog.Image
		policy Policy
		want   catalog.Image
		wantOK bool
	}{
		"empty input": {
			images: nil,
			policy: testPolicy(),
			wantOK: false,
		},
		"preferred tier wins on votes": {
			images: []catalog.Image{
				{FilePath: "/a.jpg", Language: "en", VoteAverage: 5.5, Width: 2000, Height: 3000},
				{FilePath: "/b.jpg", Language: "en", VoteAverage: 6.0, Width: 2000, Height: 3000},
			},
			policy: testPolicy(),
			want:   catalog.Image{FilePath: "/b.jpg", Language: "en", VoteAverage: 6.0, Width: 2000, Height: 3000},
			wantOK: true,
		},
		"vote tie broken by area": {
			images: []catalog.Image{
				{FilePath: "/a.jpg", Language: "en", VoteAverage: 6.0, Width: 2000, Height: 3000},
				{FilePath: "/b.jpg", Language: "en", VoteAverage: 6.0, Width: 3000, Height: 4500},
			},
			policy: testPolicy(),
			want:   catalog.Image{FilePath: "/b.jpg", Language: "en", VoteAverage: 6.0, Width: 3000, Height: 4500},
			wantOK: true,
		},
		"language priority narrows pool": {
			images: []catalog.Image{
				{FilePath: "/de.jpg", Language: "de", VoteAverage: 9.0, Width: 2000, Height: 3000},
				{FilePath: "/en.jpg", Language: "en", VoteAverage: 5.5, Width: 2000, Height: 3000},
			},
			policy: testPolicy(),
			want:   catalog.Image{FilePath: "/en.jpg", Language: "en", VoteAverage: 5.5, Width: 2000, Height: 3000},
			wantOK: true,
		},
		"fallback language used when preferred absent": {
			images: []catalog.Image{
				{FilePath: "/de.jpg", Language: "de", VoteAverage: 5.5, Width: 2000, Height: 3000},
				{FilePath: "/fr.jpg", Language: "fr", VoteAverage: 9.0, Width: 2000, Height: 3000},
			},
			policy: testPolicy(),
			want:   catalog.Image{FilePath: "/de.jpg", Language: "de", VoteAverage: 5.5, Width: 2000, Height: 3000},
			wantOK: true,
		},
		"relaxed tier when preferred empty": {
			images: []catalog.Image{
				{FilePath: "/a.jpg", Language: "en", VoteAverage: 4.0, Width: 1200, Height: 1800},
				{FilePath: "/b.jpg", Language: "en", VoteAverage: 3.6, Width: 1000, Height: 1500},
			},
			policy: testPolicy(),
			want:   catalog.Image{FilePath: "/a.jpg", Language: "en", VoteAverage: 4.0, Width: 1200, Height: 1800},
			wantOK: true,
		},
		"dimension tier ignores votes": {
			images: []catalog.Image{
				{FilePath: "/a.jpg", Language: "en", VoteAverage: 1.0, Width: 1200, Height: 1800},
				{FilePath: "/b.jpg", Language: "en", VoteAverage: 3.0, Width: 1000, Height: 1500},
			},
			policy: testPolicy(),
			want:   catalog.Image{FilePath: "/a.jpg", Language: "en", VoteAverage: 1.0, Width: 1200, Height: 1800},
			wantOK: true,
		},
		"never empty-handed": {
			images: []catalog.Image{
				{FilePath: "/tiny.jpg", Language: "en", VoteAverage: 0, Width: 100, Height: 150},
				{FilePath: "/small.jpg", Language: "en", VoteAverage: 0, Width: 200, Height: 300},
			},
			policy: testPolicy(),
			want:   catalog.Image{FilePath: "/small.jpg", Language: "en", VoteAverage: 0, Width: 200, Height: 300},
			wantOK: true,
		},
		"no language filter for backgrounds": {
			images: []catalog.Image{
				{FilePath: "/none.jpg", Language: "", VoteAverage: 6.0, Width: 3840, Height: 2160},
				{FilePath: "/en.jpg", Language: "en", VoteAverage: 5.5, Width: 3840, Height: 2160},
			},
			policy: Policy{
				PreferredVote: 5.0, RelaxedVote: 3.5,
				PreferredWidth: 3840, PreferredHeight: 2160,
				MinWidth: 1920, MinHeight: 1080,
			},
			want:   catalog.Image{FilePath: "/none.jpg", Language: "", VoteAverage: 6.0, Width: 3840, Height: 2160},
			wantOK: true,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := SelectBest(tc.images, tc.policy)
			if ok != tc.wantOK {
				t.Fatalf("SelectBest ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("selection mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
