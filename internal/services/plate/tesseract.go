//go:build tesseract

package plate

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"speedguard/internal/config"
)

// plateWhitelist limits recognition to characters found on plates.
const plateWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

// TesseractEngine recognizes plates with a fixed pool of Tesseract clients.
// A gosseract client is not safe for concurrent use, so each call holds one
// client from the pool for its whole duration.
type TesseractEngine struct {
	clients chan *gosseract.Client
	size    int
	mu      sync.Mutex
	closed  bool
}

// NewEngine creates a Tesseract engine with config.OCRPoolSize clients.
func NewEngine(config *config.Config) (Engine, error) {
	size := config.OCRPoolSize
	if size <= 0 {
		size = 1
	}

	e := &TesseractEngine{
		clients: make(chan *gosseract.Client, size),
		size:    size,
	}

	for i := 0; i < size; i++ {
		client, err := newClient(config.OCRLanguage)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to initialize ocr client %d: %w", i, err)
		}
		e.clients <- client
	}

	return e, nil
}

func newClient(language string) (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("set language %q: %w", language, err)
	}
	// A cropped plate is a single line of text.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := client.SetWhitelist(plateWhitelist); err != nil {
		client.Close()
		return nil, fmt.Errorf("set whitelist: %w", err)
	}
	return client, nil
}

// Acquire takes a client from the pool, waiting until one is free or ctx ends.
func (e *TesseractEngine) Acquire(ctx context.Context) (*gosseract.Client, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("ocr pool is closed")
	}

	select {
	case client, ok := <-e.clients:
		if !ok {
			return nil, fmt.Errorf("ocr pool is closed")
		}
		return client, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a client to the pool.
func (e *TesseractEngine) Release(client *gosseract.Client) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		client.Close()
		return
	}
	e.clients <- client
}

// Recognize runs word-level recognition on img.
func (e *TesseractEngine) Recognize(ctx context.Context, img []byte) ([]Fragment, error) {
	client, err := e.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer e.Release(client)

	if err := client.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("set ocr image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fragments := make([]Fragment, 0, len(boxes))
	for _, box := range boxes {
		fragments = append(fragments, Fragment{Text: box.Word, Confidence: box.Confidence / 100})
	}
	return fragments, nil
}

// Close destroys every pooled client. In-flight clients are closed on Release.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	close(e.clients)

	for client := range e.clients {
		client.Close()
	}
	return nil
}
