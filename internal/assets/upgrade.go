package assets

import (
	"os"

	"github.com/disintegration/imaging"

	"metasync/internal/catalog"
)

// Status names the rule that decided whether an asset is replaced.
type Status string

const (
	UpgradeVotes      Status = "UPGRADE_VOTES"
	UpgradeThreshold  Status = "UPGRADE_THRESHOLD"
	NoExistingAsset   Status = "NO_EXISTING_ASSET"
	UpgradeDimensions Status = "UPGRADE_DIMENSIONS"
	NoImageForCompare Status = "NO_IMAGE_FOR_COMPARE"
	ErrorImageCompare Status = "ERROR_IMAGE_COMPARE"
	NoUpgradeNeeded   Status = "NO_UPGRADE_NEEDED"
)

// Decision is the outcome of an upgrade check, with the values that drove it.
type Decision struct {
	Upgrade bool
	Status  Status

	NewVotes    float64
	CachedVotes float64

	NewWidth       int
	NewHeight      int
	ExistingWidth  int
	ExistingHeight int
}

// Decide applies the upgrade rules in order: better-voted candidates always
// win, a candidate over the vote threshold wins when no vote is cached, a
// missing asset file is always filled, and otherwise the candidate's declared
// dimensions are compared against the decoded pixel size of the image at
// comparePath. The last two statuses report a comparison that could not run;
// neither upgrades.
func Decide(candidate catalog.Image, cachedVotes, voteThreshold float64, assetPath, comparePath string) Decision {
	d := Decision{
		NewVotes:    candidate.VoteAverage,
		CachedVotes: cachedVotes,
		NewWidth:    candidate.Width,
		NewHeight:   candidate.Height,
	}

	if candidate.VoteAverage > cachedVotes {
		d.Upgrade = true
		d.Status = UpgradeVotes
		return d
	}
	if cachedVotes == 0 && candidate.VoteAverage >= voteThreshold {
		d.Upgrade = true
		d.Status = UpgradeThreshold
		return d
	}
	if _, err := os.Stat(assetPath); os.IsNotExist(err) {
		d.Upgrade = true
		d.Status = NoExistingAsset
		return d
	}

	if comparePath == "" {
		d.Status = NoImageForCompare
		return d
	}
	if _, err := os.Stat(comparePath); err != nil {
		d.Status = NoImageForCompare
		return d
	}
	img, err := imaging.Open(comparePath)
	if err != nil {
		d.Status = ErrorImageCompare
		return d
	}
	bounds := img.Bounds()
	d.ExistingWidth = bounds.Dx()
	d.ExistingHeight = bounds.Dy()

	if candidate.Width > d.ExistingWidth || candidate.Height > d.ExistingHeight {
		d.Upgrade = true
		d.Status = UpgradeDimensions
		return d
	}
	d.Status = NoUpgradeNeeded
	return d
}
