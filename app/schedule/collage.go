package schedule

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"net/http"

	"golang.org/x/image/draw"
)

// Tile dimensions of a schedule poster in the collage.
const (
	TileWidth  = 715
	TileHeight = 330
)

var blankFill = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

type Collager struct {
	httpClient *http.Client
	userAgent  string
}

func NewCollager(httpClient *http.Client, userAgent string) *Collager {
	return &Collager{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Build lays the posters out on a grid of round(sqrt(n)) columns and encodes
// it as JPEG. Empty cells and posters that fail to load show the blank tile.
func (c *Collager) Build(ctx context.Context, posters []string, blankURL string) ([]byte, error) {
	if len(posters) == 0 {
		return nil, fmt.Errorf("no posters to compose")
	}

	blank := c.tile(ctx, blankURL)
	if blank == nil {
		blank = image.NewUniform(blankFill)
	}

	tiles := make([]image.Image, len(posters))
	for i, posterURL := range posters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tiles[i] = c.tile(ctx, posterURL)
	}

	return Compose(tiles, blank)
}

// Compose renders tiles onto a grid. Nil tiles and trailing cells are filled
// with blank.
func Compose(tiles []image.Image, blank image.Image) ([]byte, error) {
	cols, rows := Grid(len(tiles))
	canvas := image.NewRGBA(image.Rect(0, 0, cols*TileWidth, rows*TileHeight))

	for i := 0; i < cols*rows; i++ {
		src := blank
		if i < len(tiles) && tiles[i] != nil {
			src = tiles[i]
		}
		x, y := (i%cols)*TileWidth, (i/cols)*TileHeight
		dst := image.Rect(x, y, x+TileWidth, y+TileHeight)
		if _, uniform := src.(*image.Uniform); uniform {
			draw.Draw(canvas, dst, src, image.Point{}, draw.Src)
			continue
		}
		draw.CatmullRom.Scale(canvas, dst, src, src.Bounds(), draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode collage: %w", err)
	}
	return buf.Bytes(), nil
}

// Grid returns the column and row count for n tiles.
func Grid(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = max(int(math.Round(math.Sqrt(float64(n)))), 1)
	rows = (n + cols - 1) / cols
	return cols, rows
}

func (c *Collager) tile(ctx context.Context, imageURL string) image.Image {
	if imageURL == "" {
		return nil
	}

	img, err := c.download(ctx, imageURL)
	if err != nil {
		slog.Warn("Failed to load poster", "url", imageURL, "error", err)
		return nil
	}
	return img
}

func (c *Collager) download(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
