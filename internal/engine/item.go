package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"metasync/internal/assets"
	"metasync/internal/catalog"
	"metasync/internal/config"
	"metasync/internal/media"
	"metasync/internal/metadata"
	"metasync/internal/store"
)

// Quality metric names recorded on cache entries per artwork class. Season
// posters live on their own season-scoped cache keys and reuse the generic
// vote metric, which is also where legacy flat entries land.
const (
	posterMetric     = "poster_average"
	backgroundMetric = "bg_average"
)

type itemResult struct {
	item media.Item
	err  error

	missing           bool
	metadataUpdated   bool
	metadataPreserved bool

	assetsUpdated   int
	assetsSkipped   int
	assetsFailed    int
	bytesDownloaded int64
}

func (e *Engine) processItem(ctx context.Context, item media.Item, doc *metadata.Document) itemResult {
	res := itemResult{item: item}

	id, found, err := e.resolver.Resolve(ctx, item)
	if err != nil {
		res.err = fmt.Errorf("resolve %s: %w", item.TitleYear(), err)
		return res
	}
	if !found {
		res.missing = true
		return res
	}

	switch item.Type {
	case media.TypeMovie:
		e.processMovie(ctx, item, id, doc, &res)
	case media.TypeTV:
		e.processShow(ctx, item, id, doc, &res)
	default:
		res.err = fmt.Errorf("unsupported media type %q for %s", item.Type, item.TitleYear())
	}
	return res
}

func (e *Engine) processMovie(ctx context.Context, item media.Item, id string, doc *metadata.Document, res *itemResult) {
	details, err := e.catalog.MovieDetails(ctx, id)
	if err != nil {
		res.err = fmt.Errorf("fetch movie details %s: %w", item.TitleYear(), err)
		return
	}

	if doc != nil {
		rec := metadata.BuildMovie(item, id, details)
		e.applyRecord(doc, item, rec, res)
	}

	if e.cfg.Assets.RunPoster {
		e.processAsset(ctx, assetJob{
			item:       item,
			id:         id,
			cacheKey:   item.Key(),
			entryType:  media.TypeMovie,
			metric:     posterMetric,
			candidates: details.Images.Posters,
			policy:     e.posterPolicy(),
			assetPath:  e.writer.ItemPath(item.Library, item.Dir, e.cfg.Assets.PosterFile),
			class:      "poster",
		}, res)
	}
	if e.cfg.Assets.RunBackground {
		e.processAsset(ctx, assetJob{
			item:       item,
			id:         id,
			cacheKey:   item.Key(),
			entryType:  media.TypeMovie,
			metric:     backgroundMetric,
			candidates: details.Images.Backdrops,
			policy:     e.backgroundPolicy(),
			assetPath:  e.writer.ItemPath(item.Library, item.Dir, e.cfg.Assets.BackgroundFile),
			class:      "background",
		}, res)
	}
}

func (e *Engine) processShow(ctx context.Context, item media.Item, id string, doc *metadata.Document, res *itemResult) {
	details, err := e.catalog.TVDetails(ctx, id)
	if err != nil {
		res.err = fmt.Errorf("fetch show details %s: %w", item.TitleYear(), err)
		return
	}

	// Season details are fetched once and shared between the metadata
	// record and the season poster pass.
	seasons := make(map[int]*catalog.SeasonDetails)
	for _, num := range sortedSeasons(item.SeasonEpisodes) {
		if num == 0 {
			continue
		}
		sd, err := e.catalog.SeasonDetails(ctx, id, num)
		if err != nil {
			e.log.Warn().Err(err).Str("title", item.TitleYear()).Int("season", num).Msg("fetching season details failed")
			continue
		}
		seasons[num] = sd
	}

	if doc != nil {
		rec := metadata.BuildShow(item, details, seasons)
		e.applyRecord(doc, item, rec, res)
	}

	if e.cfg.Assets.RunPoster {
		e.processAsset(ctx, assetJob{
			item:       item,
			id:         id,
			cacheKey:   item.Key(),
			entryType:  media.TypeTV,
			metric:     posterMetric,
			candidates: details.Images.Posters,
			policy:     e.posterPolicy(),
			assetPath:  e.writer.ItemPath(item.Library, item.Dir, e.cfg.Assets.PosterFile),
			class:      "poster",
		}, res)
	}
	if e.cfg.Assets.RunBackground {
		e.processAsset(ctx, assetJob{
			item:       item,
			id:         id,
			cacheKey:   item.Key(),
			entryType:  media.TypeTV,
			metric:     backgroundMetric,
			candidates: details.Images.Backdrops,
			policy:     e.backgroundPolicy(),
			assetPath:  e.writer.ItemPath(item.Library, item.Dir, e.cfg.Assets.BackgroundFile),
			class:      "background",
		}, res)
	}
	if e.cfg.Assets.RunSeason {
		for _, num := range sortedSeasons(item.SeasonEpisodes) {
			sd, ok := seasons[num]
			if !ok {
				continue
			}
			e.processAsset(ctx, assetJob{
				item:       item,
				id:         id,
				cacheKey:   media.SeasonKey(item.Title, item.Year, num),
				entryType:  media.TypeTVSeason,
				metric:     store.VoteAverageMetric,
				candidates: sd.Images.Posters,
				policy:     e.posterPolicy(),
				assetPath:  e.writer.SeasonPath(item.Library, item.Dir, num),
				class:      "season poster",
			}, res)
		}
	}
}

func (e *Engine) applyRecord(doc *metadata.Document, item media.Item, rec metadata.Record, res *itemResult) {
	filled, expected, percent := rec.Completeness()
	e.log.Info().
		Str("title", item.TitleYear()).
		Int("filled", filled).
		Int("expected", expected).
		Int("percent", percent).
		Msg("metadata extracted")

	changed, err := doc.Upsert(item.TitleYear(), rec)
	if err != nil {
		res.err = fmt.Errorf("update metadata %s: %w", item.TitleYear(), err)
		return
	}
	if len(changed) == 0 {
		res.metadataPreserved = true
		return
	}
	res.metadataUpdated = true
	e.log.Debug().Str("title", item.TitleYear()).Strs("fields", changed).Msg("metadata record updated")
}

type assetJob struct {
	item       media.Item
	id         string
	cacheKey   string
	entryType  media.Type
	metric     string
	candidates []catalog.Image
	policy     assets.Policy
	assetPath  string
	class      string
}

// processAsset runs selection, the upgrade decision and, when it upgrades,
// the download and placement for one artwork file. The asset path is marked
// as written-this-run in every outcome so a following reconciliation never
// removes it.
func (e *Engine) processAsset(ctx context.Context, job assetJob, res *itemResult) {
	log := e.log.With().
		Str("title", job.item.TitleYear()).
		Str("class", job.class).
		Logger()

	best, ok := assets.SelectBest(job.candidates, job.policy)
	if !ok {
		log.Info().Msg("no artwork candidates")
		res.assetsSkipped++
		return
	}
	e.markWritten(job.assetPath)

	entry, _ := e.cache.Get(job.cacheKey)
	cachedVotes := entry.Quality(job.metric)
	if cachedVotes == 0 && job.metric == posterMetric {
		// Legacy entries recorded the poster vote under the generic
		// metric; without the fallback every legacy entry would look
		// unrated and re-download its poster each run.
		cachedVotes = entry.Quality(store.VoteAverageMetric)
	}
	decision := assets.Decide(best, cachedVotes, job.policy.VoteThreshold, job.assetPath, job.assetPath)
	if !decision.Upgrade {
		log.Debug().Str("status", string(decision.Status)).Msg("no artwork upgrade needed")
		res.assetsSkipped++
		return
	}

	if e.cfg.DryRun {
		log.Info().Str("status", string(decision.Status)).Msg("would download artwork")
		res.assetsSkipped++
		return
	}

	data, err := e.catalog.DownloadImage(ctx, best.FilePath)
	if err != nil {
		log.Warn().Err(err).Msg("artwork download failed")
		res.assetsFailed++
		return
	}
	res.bytesDownloaded += int64(len(data))
	temp, err := e.writer.WriteTemp(job.item.Library, data)
	if err != nil {
		log.Warn().Err(err).Msg("staging artwork failed")
		res.assetsFailed++
		return
	}
	promoted, err := e.writer.Promote(temp, job.assetPath)
	if err != nil {
		e.writer.Discard(temp)
		log.Warn().Err(err).Msg("placing artwork failed")
		res.assetsFailed++
		return
	}

	// Record the vote even when the checksum skip declined the write: the
	// file on disk already is the selected candidate, and leaving the
	// metric unrecorded would repeat the download on every following run.
	entry.ExternalID = job.id
	entry.Title = job.item.Title
	entry.Year = job.item.Year
	entry.MediaType = job.entryType
	entry.LastUpdated = time.Now().UTC()
	if err := e.cache.Put(job.cacheKey, entry.WithQuality(job.metric, best.VoteAverage)); err != nil {
		log.Warn().Err(err).Msg("recording artwork quality failed")
	}

	if !promoted {
		res.assetsSkipped++
		return
	}
	log.Info().Str("status", string(decision.Status)).Msg("artwork upgraded")
	res.assetsUpdated++
}

func (e *Engine) posterPolicy() assets.Policy {
	langs := []string{imageLanguage(e.cfg.Catalog.Language)}
	langs = append(langs, e.cfg.Catalog.FallbackLanguages...)
	return policyFrom(e.cfg.Posters, langs)
}

func (e *Engine) backgroundPolicy() assets.Policy {
	return policyFrom(e.cfg.Backgrounds, nil)
}

func policyFrom(sc config.SelectionConfig, langs []string) assets.Policy {
	return assets.Policy{
		Languages:       langs,
		PreferredVote:   sc.PreferredVote,
		RelaxedVote:     sc.VoteRelaxed,
		VoteThreshold:   sc.VoteThreshold,
		PreferredWidth:  sc.PreferredWidth,
		PreferredHeight: sc.PreferredHeight,
		MinWidth:        sc.MinWidth,
		MinHeight:       sc.MinHeight,
	}
}

// imageLanguage reduces a locale like "en-US" to its bare language code.
func imageLanguage(lang string) string {
	if i := strings.Index(lang, "-"); i > 0 {
		return lang[:i]
	}
	return lang
}

func sortedSeasons(seasons map[int][]int) []int {
	nums := make([]int, 0, len(seasons))
	for num := range seasons {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}
