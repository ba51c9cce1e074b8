package battlequeue

import (
	"io"
	"net/http"
	"time"

	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ImagePreloader warms thumbnail and avatar URLs so the browser cache is hot
// by the time a battle is displayed. Fire-and-forget: failures are logged at
// debug and otherwise ignored.
type ImagePreloader struct {
	client *http.Client
}

func NewImagePreloader() *ImagePreloader {
	return &ImagePreloader{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *ImagePreloader) Preload(battle *models.Battle) {
	urls := []string{
		battle.VideoA.Thumbnail,
		battle.VideoB.Thumbnail,
		battle.Channel.Avatar,
	}
	for _, url := range urls {
		if url == "" {
			continue
		}
		go p.warm(url)
	}
}

func (p *ImagePreloader) warm(url string) {
	resp, err := p.client.Get(url)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("asset preload failed")
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
}
