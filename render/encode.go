package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"io"

	"github.com/icza/mjpeg"
)

var ErrNoFrames = errors.New("no frames to encode")

// WriteGIF encodes frames as a looping animation. delay is in hundredths of a
// second per frame.
func (r *Renderer) WriteGIF(w io.Writer, frames []*image.NRGBA, delay int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	palette := color.Palette{r.Background, r.Foreground, White}
	anim := &gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		p := image.NewPaletted(frame.Bounds(), palette)
		draw.Draw(p, p.Bounds(), frame, image.Point{}, draw.Src)
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, anim)
}

// WriteMJPEG writes frames to an AVI file as motion JPEG.
func WriteMJPEG(path string, frames []*image.NRGBA, fps int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	bounds := frames[0].Bounds()
	video, err := mjpeg.New(path, int32(bounds.Dx()), int32(bounds.Dy()), int32(fps))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, frame := range frames {
		buf.Reset()
		if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 90}); err != nil {
			video.Close()
			return err
		}
		if err := video.AddFrame(buf.Bytes()); err != nil {
			video.Close()
			return err
		}
	}
	return video.Close()
}
