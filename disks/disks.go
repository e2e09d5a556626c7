// Package disks provides predefined storage media profiles for sizing RAM
// disks and disk images.
package disks

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/lithos-os/lithos/block"
)

// MediaProfile describes one kind of storage medium the kernel might sit on.
type MediaProfile struct {
	Name string `csv:"name"`
	Slug string `csv:"slug"`

	// TotalBlocks gives the capacity in 512-byte blocks.
	TotalBlocks uint64 `csv:"total_blocks"`

	ReadOnly uint   `csv:"read_only"`
	Notes    string `csv:"notes"`
}

// TotalSizeBytes gives the size of the medium. This is the minimum size of
// an image file holding it.
func (p *MediaProfile) TotalSizeBytes() int64 {
	return int64(p.TotalBlocks) * block.BlockSize
}

//go:embed media-profiles.csv
var mediaProfilesRawCSV string
var mediaProfiles = make(map[string]MediaProfile)

// GetPredefinedMediaProfile looks a profile up by slug.
func GetPredefinedMediaProfile(slug string) (MediaProfile, error) {
	profile, ok := mediaProfiles[slug]
	if ok {
		return profile, nil
	}

	err := fmt.Errorf("no predefined media profile exists with slug %q", slug)
	return MediaProfile{}, err
}

// Slugs lists every known profile slug in ascending order.
func Slugs() []string {
	slugs := make([]string, 0, len(mediaProfiles))
	for slug := range mediaProfiles {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

func init() {
	reader := strings.NewReader(mediaProfilesRawCSV)
	err := gocsv.UnmarshalToCallback(
		reader,
		func(row MediaProfile) error {
			_, exists := mediaProfiles[row.Slug]
			if exists {
				return fmt.Errorf(
					"duplicate definition for media profile %q found on row %d",
					row.Slug,
					len(mediaProfiles)+1,
				)
			}
			mediaProfiles[row.Slug] = row
			return nil
		},
	)
	if err != nil && err != io.EOF {
		panic(err)
	}
}
