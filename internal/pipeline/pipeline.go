package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/NamanBalaji/lj/internal/logger"
	"github.com/NamanBalaji/lj/internal/realdebrid"
	"github.com/NamanBalaji/lj/internal/tui/styles"
)

var (
	ErrFileListTimeout   = errors.New("timed out waiting for file list")
	ErrCompletionTimeout = errors.New("timed out waiting for Real-Debrid to finish")
	ErrNoFiles           = errors.New("torrent has no files")
	ErrNoFilesSelected   = errors.New("no files selected")
	ErrNoLinks           = errors.New("no links available")
	ErrNoDownloadLinks   = errors.New("could not resolve any download links")
	ErrInvalidMagnet     = errors.New("not a valid magnet link")
)

// TorrentError reports a remote torrent that reached a failure status.
type TorrentError struct {
	Status string
}

func (e *TorrentError) Error() string {
	return fmt.Sprintf("torrent failed with status: %s", e.Status)
}

// Remote is the subset of the service client the pipeline drives.
type Remote interface {
	AddMagnet(ctx context.Context, magnet string) (string, error)
	TorrentInfo(ctx context.Context, id string) (*realdebrid.TorrentInfo, error)
	SelectFiles(ctx context.Context, id string, fileIDs []int) error
	UnrestrictLink(ctx context.Context, link string) (*realdebrid.UnrestrictResponse, error)
	DeleteTorrent(ctx context.Context, id string) error
	ContentLength(ctx context.Context, link string) (uint64, error)
}

// Selector lets the user pick among candidate files. It returns indices into
// files; an empty result means nothing was chosen.
type Selector interface {
	Select(ctx context.Context, files []realdebrid.TorrentFile) ([]int, error)
}

// Tracker records remote torrents that exist server-side so leaked ones can
// be cleaned up later.
type Tracker interface {
	Track(remoteID, magnet, session string) error
	Forget(remoteID string) error
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAddingMagnet
	PhaseAwaitingFileSelection
	PhaseFilesSelected
	PhaseAwaitingCompletion
	PhaseLinksResolved
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAddingMagnet:
		return "adding magnet"
	case PhaseAwaitingFileSelection:
		return "awaiting file selection"
	case PhaseFilesSelected:
		return "files selected"
	case PhaseAwaitingCompletion:
		return "awaiting completion"
	case PhaseLinksResolved:
		return "links resolved"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Link is a resolved direct download. Size 0 means unknown.
type Link struct {
	Filename string
	URL      string
	Size     uint64
}

type Options struct {
	FilesPollInterval      time.Duration
	FilesTimeout           time.Duration
	CompletionPollInterval time.Duration
	CompletionTimeout      time.Duration
	MinFileSize            uint64
}

func DefaultOptions() Options {
	return Options{
		FilesPollInterval:      time.Second,
		FilesTimeout:           60 * time.Second,
		CompletionPollInterval: 2 * time.Second,
		CompletionTimeout:      600 * time.Second,
		MinFileSize:            1_000_000,
	}
}

type Option func(*Pipeline)

func WithClock(c Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithOutput sets where step narration and telemetry are printed.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

func WithTracker(t Tracker) Option {
	return func(p *Pipeline) { p.tracker = t }
}

// Pipeline drives one magnet through the remote service until direct links
// are available. It is not safe for concurrent use.
type Pipeline struct {
	remote   Remote
	selector Selector
	tracker  Tracker
	clock    Clock
	out      io.Writer
	opts     Options
	phase    Phase
}

func New(remote Remote, selector Selector, opts Options, options ...Option) *Pipeline {
	p := &Pipeline{
		remote:   remote,
		selector: selector,
		clock:    realClock{},
		out:      io.Discard,
		opts:     opts,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Phase returns the phase the last Run reached.
func (p *Pipeline) Phase() Phase {
	return p.phase
}

// Run submits the magnet and returns the resolved direct links.
func (p *Pipeline) Run(ctx context.Context, magnet string) ([]Link, error) {
	links, err := p.run(ctx, magnet)
	if err != nil {
		p.phase = PhaseError
		return nil, err
	}
	p.phase = PhaseLinksResolved
	return links, nil
}

func (p *Pipeline) run(ctx context.Context, magnet string) ([]Link, error) {
	if !ValidMagnet(magnet) {
		return nil, ErrInvalidMagnet
	}

	session := uuid.NewString()
	if m, err := ParseMagnet(magnet); err == nil {
		logger.Infof("Session %s: adding magnet %s with %d tracker(s)", session, m, len(m.Trackers))
	} else {
		logger.Infof("Session %s: adding magnet (%v)", session, err)
	}

	p.phase = PhaseAddingMagnet
	p.printf("%s Adding magnet...\n", styles.Step(1, 4))
	torrentID, err := p.remote.AddMagnet(ctx, magnet)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Session %s: remote torrent %s", session, torrentID)
	if p.tracker != nil {
		if err := p.tracker.Track(torrentID, magnet, session); err != nil {
			logger.Warnf("Failed to record remote torrent %s: %v", torrentID, err)
		}
	}

	p.phase = PhaseAwaitingFileSelection
	p.printf("%s Waiting for file list...\n", styles.Step(2, 4))
	files, err := p.waitForFiles(ctx, torrentID)
	if err != nil {
		return nil, err
	}

	p.printf("%s Selecting files...\n", styles.Step(3, 4))
	ids, err := p.chooseFiles(ctx, torrentID, files)
	if err != nil {
		return nil, err
	}
	if err := p.remote.SelectFiles(ctx, torrentID, ids); err != nil {
		return nil, err
	}
	p.phase = PhaseFilesSelected
	logger.Infof("Session %s: selected %d file(s)", session, len(ids))

	p.phase = PhaseAwaitingCompletion
	p.printf("%s Waiting for Real-Debrid to process...\n", styles.Step(4, 4))
	remoteLinks, err := p.waitForCompletion(ctx, torrentID)
	if err != nil {
		return nil, err
	}

	links := p.resolve(ctx, remoteLinks)
	p.cleanup(torrentID)

	if len(links) == 0 {
		return nil, ErrNoDownloadLinks
	}
	logger.Infof("Session %s: resolved %d of %d link(s)", session, len(links), len(remoteLinks))
	return links, nil
}

func (p *Pipeline) waitForFiles(ctx context.Context, torrentID string) ([]realdebrid.TorrentFile, error) {
	deadline := p.clock.Now().Add(p.opts.FilesTimeout)
	for {
		info, err := p.remote.TorrentInfo(ctx, torrentID)
		if err != nil {
			return nil, err
		}

		switch info.Status {
		case realdebrid.StatusMagnetError, realdebrid.StatusDead, realdebrid.StatusError:
			return nil, &TorrentError{Status: info.Status}
		case realdebrid.StatusWaitingFilesSelection:
			if len(info.Files) > 0 {
				return info.Files, nil
			}
		}

		if !p.clock.Now().Before(deadline) {
			return nil, ErrFileListTimeout
		}
		if err := p.clock.Sleep(ctx, p.opts.FilesPollInterval); err != nil {
			return nil, err
		}
	}
}

func (p *Pipeline) chooseFiles(ctx context.Context, torrentID string, files []realdebrid.TorrentFile) ([]int, error) {
	choice := Choose(files, p.opts.MinFileSize)

	switch choice.Mode {
	case ChoiceSingle:
		p.printf("Single file found, selecting automatically\n")
		return choice.IDs, nil
	case ChoiceAll:
		p.printf("No main files found, selecting all %d file(s)\n", len(choice.IDs))
		return choice.IDs, nil
	case ChoiceManual:
		var picked []int
		if p.selector == nil {
			picked = make([]int, len(choice.Candidates))
			for i := range picked {
				picked[i] = i
			}
		} else {
			var err error
			picked, err = p.selector.Select(ctx, choice.Candidates)
			if err != nil {
				p.cleanup(torrentID)
				return nil, err
			}
		}

		ids := make([]int, 0, len(picked))
		for _, i := range picked {
			if i >= 0 && i < len(choice.Candidates) {
				ids = append(ids, choice.Candidates[i].ID)
			}
		}
		if len(ids) == 0 {
			p.cleanup(torrentID)
			return nil, ErrNoFilesSelected
		}
		return ids, nil
	default:
		p.cleanup(torrentID)
		return nil, ErrNoFiles
	}
}

func (p *Pipeline) waitForCompletion(ctx context.Context, torrentID string) ([]string, error) {
	deadline := p.clock.Now().Add(p.opts.CompletionTimeout)
	telemetry := false
	defer func() {
		if telemetry {
			p.printf("\n")
		}
	}()

	for {
		info, err := p.remote.TorrentInfo(ctx, torrentID)
		if err != nil {
			return nil, err
		}

		switch info.Status {
		case realdebrid.StatusDownloaded:
			if len(info.Links) == 0 {
				return nil, ErrNoLinks
			}
			return info.Links, nil
		case realdebrid.StatusDownloading, realdebrid.StatusQueued,
			realdebrid.StatusCompressing, realdebrid.StatusUploading:
			telemetry = true
			p.printf("\rRD Processing: %.1f%% @ %.2f MB/s (%d seeders)   ",
				info.Progress, float64(info.Speed)/1e6, info.Seeders)
		case realdebrid.StatusMagnetError, realdebrid.StatusDead, realdebrid.StatusError:
			return nil, &TorrentError{Status: info.Status}
		}

		if !p.clock.Now().Before(deadline) {
			return nil, ErrCompletionTimeout
		}
		if err := p.clock.Sleep(ctx, p.opts.CompletionPollInterval); err != nil {
			return nil, err
		}
	}
}

func (p *Pipeline) resolve(ctx context.Context, remoteLinks []string) []Link {
	var links []Link
	for _, rl := range remoteLinks {
		res, err := p.remote.UnrestrictLink(ctx, rl)
		if err != nil {
			logger.Warnf("Skipping link %s: %v", rl, err)
			p.printf("%s %v\n", styles.Warning.Render("Warning: skipping link:"), err)
			continue
		}

		size, err := p.remote.ContentLength(ctx, res.Download)
		if err != nil {
			logger.Debugf("Size probe failed for %s: %v", res.Download, err)
			size = 0
		}

		name := res.Filename
		if name == "" {
			name = filenameFromURL(res.Download)
		}
		links = append(links, Link{Filename: name, URL: res.Download, Size: size})
	}
	return links
}

// cleanup deletes the remote torrent. Failures are ignored; the ledger keeps
// the entry so a later sweep can retry.
func (p *Pipeline) cleanup(torrentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.remote.DeleteTorrent(ctx, torrentID); err != nil {
		logger.Warnf("Failed to delete remote torrent %s: %v", torrentID, err)
		return
	}
	if p.tracker != nil {
		if err := p.tracker.Forget(torrentID); err != nil {
			logger.Warnf("Failed to forget remote torrent %s: %v", torrentID, err)
		}
	}
}

func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "download"
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "download"
	}
	return name
}
