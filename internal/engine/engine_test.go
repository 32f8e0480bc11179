package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/IshaanNene/planewatch/internal/config"
	"github.com/IshaanNene/planewatch/internal/mailer"
	"github.com/IshaanNene/planewatch/internal/observability"
	"github.com/IshaanNene/planewatch/internal/sites"
	"github.com/IshaanNene/planewatch/internal/storage"
	"github.com/IshaanNene/planewatch/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

const targetURL = "https://www.barnstormers.com/category-21-Vans.html"

const categoryPage = `<html><body>
<div class="classified_single" data-adid="100">
  <a class="listing_header" href="/classified-100-2008-vans-rv-7a.html">2008 Van's RV-7A</a>
  <div class="classified_body">Dynon glass panel, autopilot. Price 89,500 OBO</div>
  <div class="classified_contact">located Tulsa, OK United States</div>
  <img class="thumbnail" src="/images/thumbnail/thumbnail_image_1.jpg">
</div>
<div class="classified_single" data-adid="200">
  <a class="listing_header" href="/classified-200-rv-8.html">RV-8 Tailwheel</a>
  <div class="classified_body">Price 120000 Lycoming IO-360</div>
</div>
<div class="classified_single">
  <a class="listing_header" href="/classified-300-no-id.html">Missing id attribute</a>
</div>
</body></html>`

const detailPage200 = `<html><body>
<div class="classified_single" data-adid="200">
  <a class="listing_header" href="/classified-200-rv-8.html">RV-8 Tailwheel</a>
  <div class="classified_body">Price 120000 Lycoming IO-360, constant speed prop. Based in Austin, TX</div>
  <img class="thumbnail" src="/images/thumbnail/thumbnail_rv8.jpg">
</div>
</body></html>`

// memFetcher serves pages from a map. Unknown URLs fail with a 404.
type memFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *memFetcher) Fetch(_ context.Context, req *types.Request) (*types.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.URLString())
	body, ok := f.pages[req.URLString()]
	if !ok {
		return nil, &types.FetchError{URL: req.URLString(), StatusCode: 404, Err: errors.New("not found")}
	}
	return &types.Response{StatusCode: 200, Body: []byte(body), Request: req}, nil
}

func (f *memFetcher) Close() error { return nil }
func (f *memFetcher) Type() string { return "memory" }

type sentMail struct {
	subject, text, html string
}

// recordingMailer keeps every message it is asked to send.
type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, subject, text, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{subject, text, html})
	return nil
}

func (m *recordingMailer) Mode() mailer.Mode { return "recording" }

type fixture struct {
	cfg     *config.Config
	fetcher *memFetcher
	mailer  *recordingMailer
	seen    *storage.FileSeenStore
	stats   *observability.Stats
}

func newFixture(t *testing.T, targets ...string) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Run.PolitenessDelay = 0
	cfg.Storage.TargetsFile = filepath.Join(dir, "targets.txt")
	cfg.Storage.SeenFile = filepath.Join(dir, "seen_ids.json")

	content := "# aircraft categories\n\n" + strings.Join(targets, "\n") + "\n"
	if err := os.WriteFile(cfg.Storage.TargetsFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return &fixture{
		cfg:     cfg,
		fetcher: &memFetcher{pages: map[string]string{targetURL: categoryPage}},
		mailer:  &recordingMailer{},
		seen:    storage.NewFileSeenStore(cfg.Storage.SeenFile, testLogger()),
		stats:   observability.NewStats(testLogger()),
	}
}

func (f *fixture) runner() *Runner {
	return NewRunner(f.cfg, f.fetcher, f.seen, f.mailer, nil, f.stats, testLogger())
}

func (f *fixture) seenFile(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.cfg.Storage.SeenFile)
	if err != nil {
		t.Fatalf("read seen file: %v", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		t.Fatalf("seen file is not a JSON list: %v", err)
	}
	return ids
}

func adsWithIDs(ids ...string) map[string]types.Ad {
	out := make(map[string]types.Ad, len(ids))
	for _, id := range ids {
		out[id] = types.NewAd(id, "Listing "+id, "https://www.barnstormers.com/classified-"+id+"-x.html")
	}
	return out
}

// --- Runner Tests ---

func TestRunFirstDigest(t *testing.T) {
	f := newFixture(t, targetURL)

	res, err := f.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(f.mailer.sent))
	}
	mail := f.mailer.sent[0]
	if !strings.HasPrefix(mail.text, "New listings: 2\n") {
		t.Errorf("unexpected text header: %q", mail.text)
	}
	i200 := strings.Index(mail.text, "RV-8 Tailwheel")
	i100 := strings.Index(mail.text, "2008 Van's RV-7A")
	if i200 < 0 || i100 < 0 || i200 > i100 {
		t.Errorf("expected ad 200 before ad 100 in:\n%s", mail.text)
	}
	if mail.subject != "Aircraft classifieds: 2 new listings" {
		t.Errorf("unexpected subject %q", mail.subject)
	}
	if !strings.Contains(mail.html, "View listing") {
		t.Error("expected an HTML body")
	}

	if got := f.seenFile(t); !reflect.DeepEqual(got, []string{"200", "100"}) {
		t.Errorf("expected seen file [200 100], got %v", got)
	}
	if !res.Sent || !reflect.DeepEqual(res.NewIDs, []string{"200", "100"}) {
		t.Errorf("unexpected result %+v", res)
	}
	if res.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestRunSkipsSeenAds(t *testing.T) {
	f := newFixture(t, targetURL)
	if err := os.WriteFile(f.cfg.Storage.SeenFile, []byte(`["200"]`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := f.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(f.mailer.sent))
	}
	mail := f.mailer.sent[0]
	if !strings.HasPrefix(mail.text, "New listings: 1\n") {
		t.Errorf("unexpected text header: %q", mail.text)
	}
	if !strings.Contains(mail.text, "classified-100-") {
		t.Error("expected ad 100 in the digest")
	}
	if strings.Contains(mail.text, "classified-200-") || strings.Contains(mail.html, "classified-200-") {
		t.Error("ad 200 was already seen and must not be mailed")
	}
	if got := f.seenFile(t); !reflect.DeepEqual(got, []string{"200", "100"}) {
		t.Errorf("expected seen file [200 100], got %v", got)
	}
}

func TestRunNoNewAds(t *testing.T) {
	f := newFixture(t, targetURL)
	if err := os.WriteFile(f.cfg.Storage.SeenFile, []byte(`["200","100"]`), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := f.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Errorf("expected no mail, got %d", len(f.mailer.sent))
	}
	if res.Sent || len(res.NewIDs) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRunNoTargets(t *testing.T) {
	f := newFixture(t)

	_, err := f.runner().Run(context.Background())
	if !errors.Is(err, types.ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
	if len(f.fetcher.calls) != 0 {
		t.Errorf("expected no fetches, got %v", f.fetcher.calls)
	}
}

func TestRunMailFailureKeepsSeenSet(t *testing.T) {
	f := newFixture(t, targetURL)
	if err := os.WriteFile(f.cfg.Storage.SeenFile, []byte(`["50"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	f.mailer.err = &types.MailError{Transport: "smtp", Err: fmt.Errorf("%w: 535", types.ErrAuthRejected)}

	_, err := f.runner().Run(context.Background())
	if err == nil {
		t.Fatal("expected mail error")
	}
	if !types.IsAuthError(err) {
		t.Errorf("expected auth error to survive wrapping, got %v", err)
	}
	if got := f.seenFile(t); !reflect.DeepEqual(got, []string{"50"}) {
		t.Errorf("seen file must be untouched, got %v", got)
	}
}

func TestRunDryRunKeepsSeenSet(t *testing.T) {
	f := newFixture(t, targetURL)
	f.cfg.Run.DryRun = true

	res, err := f.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Sent || len(f.mailer.sent) != 1 {
		t.Fatal("expected the digest to be handed to the mailer")
	}
	if _, err := os.Stat(f.cfg.Storage.SeenFile); !os.IsNotExist(err) {
		t.Errorf("dry run must not write the seen file, stat err = %v", err)
	}
}

func TestRunTargetFailureContinues(t *testing.T) {
	broken := "https://www.barnstormers.com/category-99-gone.html"
	f := newFixture(t, broken, targetURL)

	res, err := f.runner().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TargetsFailed != 1 || res.Targets != 2 {
		t.Errorf("expected 1 of 2 targets to fail, got %+v", res)
	}
	if len(res.NewIDs) != 2 {
		t.Errorf("expected 2 new ads from the working target, got %v", res.NewIDs)
	}
	if f.stats.PagesFailed.Load() != 1 {
		t.Errorf("expected pages_failed 1, got %d", f.stats.PagesFailed.Load())
	}
}

func TestRunEnrichesIncompleteAds(t *testing.T) {
	f := newFixture(t, targetURL)
	f.fetcher.pages["https://www.barnstormers.com/classified-200-rv-8.html"] = detailPage200

	if _, err := f.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	html := f.mailer.sent[0].html
	if !strings.Contains(html, "/images/large/large_rv8.jpg") {
		t.Error("expected the enriched image in the HTML digest")
	}
	if !strings.Contains(html, "Constant Speed Prop") {
		t.Error("expected chips from the enriched description")
	}
	if f.stats.AdsEnriched.Load() != 1 {
		t.Errorf("expected 1 enriched ad, got %d", f.stats.AdsEnriched.Load())
	}

	// Ad 100 already has price, description and images.
	for _, u := range f.fetcher.calls {
		if strings.Contains(u, "classified-100-") {
			t.Errorf("complete ad should not be enriched, fetched %s", u)
		}
	}
}

func TestRunEnrichmentCappedByMaxItems(t *testing.T) {
	f := newFixture(t, targetURL)
	f.cfg.Run.MaxEmailItems = 1

	if _, err := f.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Only ad 200 is within the cap; its detail fetch fails and is skipped.
	if f.stats.EnrichFailed.Load() != 1 {
		t.Errorf("expected 1 failed enrichment, got %d", f.stats.EnrichFailed.Load())
	}
	if got := f.seenFile(t); !reflect.DeepEqual(got, []string{"200"}) {
		t.Errorf("only the shown ad should be marked seen, got %v", got)
	}
	if !strings.Contains(f.mailer.sent[0].text, "…and 1 more not shown.") {
		t.Errorf("expected omitted note, got %q", f.mailer.sent[0].text)
	}
}

func TestRunDetailPageWithoutContainer(t *testing.T) {
	f := newFixture(t, targetURL)
	f.fetcher.pages["https://www.barnstormers.com/classified-200-rv-8.html"] = strings.Replace(detailPage200, `data-adid="200"`, `data-adid="201"`, 1)

	if _, err := f.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.stats.EnrichMissing.Load() != 1 || f.stats.EnrichFailed.Load() != 0 {
		t.Errorf("expected 1 missing and 0 failed, got %d and %d", f.stats.EnrichMissing.Load(), f.stats.EnrichFailed.Load())
	}
	if !strings.Contains(f.mailer.sent[0].text, "RV-8 Tailwheel") {
		t.Error("ad 200 should still be mailed with its listing data")
	}
}

func TestRunTargetsRequiresTargets(t *testing.T) {
	f := newFixture(t, targetURL)

	_, err := f.runner().RunTargets(context.Background(), nil)
	if !errors.Is(err, types.ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
	if len(f.fetcher.calls) != 0 {
		t.Errorf("expected no fetches, got %v", f.fetcher.calls)
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, targetURL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner().Run(ctx)
	if !IsInterrupted(err) {
		t.Fatalf("expected an interrupted error, got %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Error("cancelled run must not send mail")
	}
}

// --- Enricher Tests ---

func TestEnrichFillsMissingFields(t *testing.T) {
	fetcher := &memFetcher{pages: map[string]string{
		"https://www.barnstormers.com/classified-200-rv-8.html": detailPage200,
	}}
	orig := types.NewAd("200", "RV-8 Tailwheel", "https://www.barnstormers.com/classified-200-rv-8.html",
		types.WithPosted("Posted March 3, 2024"))

	got, err := NewEnricher(fetcher, testLogger()).Enrich(context.Background(), orig)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got.Price != "$120000.00" {
		t.Errorf("expected fresh price, got %q", got.Price)
	}
	if len(got.Images) != 1 {
		t.Errorf("expected 1 image, got %v", got.Images)
	}
	if got.Posted != orig.Posted {
		t.Errorf("expected posted to fall back to original, got %q", got.Posted)
	}
	if got.ID != orig.ID || got.URL != orig.URL {
		t.Error("id and url must come from the original")
	}
}

func TestEnrichNoMatchingContainer(t *testing.T) {
	url := "https://www.barnstormers.com/classified-999-gone.html"
	fetcher := &memFetcher{pages: map[string]string{url: detailPage200}}
	orig := types.NewAd("999", "Gone listing", url)

	got, err := NewEnricher(fetcher, testLogger()).Enrich(context.Background(), orig)
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !reflect.DeepEqual(got, orig) {
		t.Errorf("expected original ad, got %+v", got)
	}
}

func TestEnrichFetchFailure(t *testing.T) {
	orig := types.NewAd("200", "RV-8 Tailwheel", "https://www.barnstormers.com/classified-200-rv-8.html")

	got, err := NewEnricher(&memFetcher{}, testLogger()).Enrich(context.Background(), orig)
	var fetchErr *types.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !reflect.DeepEqual(got, orig) {
		t.Error("expected the original ad on failure")
	}
}

// --- Dedup Tests ---

func TestFilterNew(t *testing.T) {
	got := FilterNew(adsWithIDs("2", "3", "4", "5"), []string{"1", "2", "3"})
	if ids := IDs(got); !reflect.DeepEqual(ids, []string{"4", "5"}) {
		t.Errorf("expected [4 5], got %v", ids)
	}
}

func TestSortNewestFirst(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"mixed lengths", []string{"10", "9", "21"}, []string{"21", "10", "9"}},
		{"leading zeros", []string{"007", "10", "8"}, []string{"10", "8", "007"}},
		{"beyond int64", []string{"99999999999999999999", "100000000000000000000"}, []string{"100000000000000000000", "99999999999999999999"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]types.Ad, len(tt.in))
			for i, id := range tt.in {
				in[i] = types.NewAd(id, "t", "u")
			}
			got := IDs(SortNewestFirst(in))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SortNewestFirst(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSortNewestFirstStable(t *testing.T) {
	in := []types.Ad{
		types.NewAd("5", "first", "a"),
		types.NewAd("05", "second", "b"),
		types.NewAd("7", "top", "c"),
	}
	got := SortNewestFirst(in)
	if got[0].Title != "top" || got[1].Title != "first" || got[2].Title != "second" {
		t.Errorf("expected stable order for equal ids, got %v", got)
	}
	if in[0].Title != "first" {
		t.Error("input must not be reordered")
	}
}

func TestMergeAdsLaterPageWins(t *testing.T) {
	p1 := map[string]types.Ad{"1": types.NewAd("1", "old", "u")}
	p2 := map[string]types.Ad{"1": types.NewAd("1", "new", "u"), "2": types.NewAd("2", "other", "u")}

	merged := MergeAds(p1, p2)
	if len(merged) != 2 {
		t.Fatalf("expected 2 ads, got %d", len(merged))
	}
	if merged["1"].Title != "new" {
		t.Errorf("expected later page to win, got %q", merged["1"].Title)
	}
}

func TestMergeAdsCopiesImages(t *testing.T) {
	page := map[string]types.Ad{"1": types.NewAd("1", "t", "u", types.WithImages([]string{"a.jpg"}))}

	merged := MergeAds(page)
	merged["1"].Images[0] = "changed.jpg"
	if page["1"].Images[0] != "a.jpg" {
		t.Error("merged ad must not share images with its page")
	}
}

func TestUpdateAndTrim(t *testing.T) {
	seen := make([]string, 0, 3050)
	for i := 1; i <= 3050; i++ {
		seen = append(seen, strconv.Itoa(i))
	}
	sent := make([]string, 0, 50)
	for i := 3051; i <= 3100; i++ {
		sent = append(sent, strconv.Itoa(i))
	}

	got := UpdateAndTrim(seen, sent, 3000)
	if len(got) != 3000 {
		t.Fatalf("expected 3000 ids, got %d", len(got))
	}
	if got[0] != "3100" || got[len(got)-1] != "101" {
		t.Errorf("expected 3100..101, got %s..%s", got[0], got[len(got)-1])
	}
}

func TestUpdateAndTrimUnboundedAndDedup(t *testing.T) {
	got := UpdateAndTrim([]string{"3", "1"}, []string{"2", "3", ""}, 0)
	if !reflect.DeepEqual(got, []string{"3", "2", "1"}) {
		t.Errorf("expected [3 2 1], got %v", got)
	}
}

func TestNeedsEnrichment(t *testing.T) {
	full := types.NewAd("1", "Title", "u",
		types.WithPrice("$1.00"), types.WithDescription("d"), types.WithImages([]string{"i"}))
	if NeedsEnrichment(full) {
		t.Error("complete ad should not need enrichment")
	}
	if !NeedsEnrichment(types.NewAd("1", "Title", "u", types.WithPrice("$1.00"), types.WithDescription("d"))) {
		t.Error("ad without images should need enrichment")
	}
}

// --- Scraper Tests ---

func TestScrapeSiteSavesAndSkips(t *testing.T) {
	site := sites.NewBarnstormers()
	term := "van's rv"
	results := `<html><body>
<a href="/classified-100-rv-7a.html">RV-7A</a>
<a href="/classified-200-rv-8.html">RV-8</a>
<a href="/about.html">About</a>
</body></html>`
	f := &memFetcher{pages: map[string]string{
		site.SearchURL(term, 1):                                  results,
		site.SearchURL(term, 2):                                  results,
		"https://www.barnstormers.com/classified-100-rv-7a.html": "<html>listing 100</html>",
	}}
	pages := storage.NewPageArchive(t.TempDir(), testLogger())
	stats := observability.NewStats(testLogger())
	s := NewScraper(f, pages, 0, 5, stats, testLogger())

	first, err := s.ScrapeSite(context.Background(), site, term)
	if err != nil {
		t.Fatalf("ScrapeSite: %v", err)
	}
	want := SiteSummary{Site: "barnstormers", Found: 2, Saved: 1, Errors: 1}
	if first != want {
		t.Errorf("first pass: got %+v, want %+v", first, want)
	}
	if !pages.Exists("barnstormers", "barnstormers_100") {
		t.Error("expected listing 100 to be archived")
	}

	second, err := s.ScrapeSite(context.Background(), site, term)
	if err != nil {
		t.Fatalf("ScrapeSite: %v", err)
	}
	want = SiteSummary{Site: "barnstormers", Found: 2, Skipped: 1, Errors: 1}
	if second != want {
		t.Errorf("second pass: got %+v, want %+v", second, want)
	}
	if stats.PagesSaved.Load() != 1 || stats.PagesSkipped.Load() != 1 {
		t.Errorf("unexpected counters %v", stats.Snapshot())
	}
}
