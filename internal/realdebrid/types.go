package realdebrid

// Remote torrent lifecycle statuses the pipeline reacts to.
const (
	StatusWaitingFilesSelection = "waiting_files_selection"
	StatusDownloaded            = "downloaded"
	StatusDownloading           = "downloading"
	StatusQueued                = "queued"
	StatusCompressing           = "compressing"
	StatusUploading             = "uploading"
	StatusMagnetError           = "magnet_error"
	StatusDead                  = "dead"
	StatusError                 = "error"
)

type AddMagnetResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// TorrentInfo is the subset of /torrents/info the pipeline reads.
type TorrentInfo struct {
	ID       string        `json:"id"`
	Status   string        `json:"status"`
	Files    []TorrentFile `json:"files"`
	Links    []string      `json:"links"`
	Progress float64       `json:"progress"`
	Speed    uint64        `json:"speed"`
	Seeders  int           `json:"seeders"`
}

type TorrentFile struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	Bytes    uint64 `json:"bytes"`
	Selected int    `json:"selected"`
}

type UnrestrictResponse struct {
	Filename string `json:"filename"`
	Download string `json:"download"`
	Filesize uint64 `json:"filesize"`
}
