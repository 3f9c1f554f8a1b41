/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package splashart prepares the image shown in the splash window.
package splashart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Load decodes the image at path and fits it into size, keeping the aspect
// ratio and centring it on a transparent canvas.
func Load(path string, size image.Point) (image.Image, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("splashart: invalid size %v", size)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("splashart: %w", err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("splashart: decode %s: %w", path, err)
	}
	return Fit(src, size)
}

// Fit scales src into size with Catmull-Rom resampling.
func Fit(src image.Image, size image.Point) (image.Image, error) {
	sb := src.Bounds()
	if sb.Empty() {
		return nil, errors.New("splashart: empty source image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.CatmullRom.Scale(dst, fitRect(sb.Size(), size), src, sb, draw.Over, nil)
	return dst, nil
}

// fitRect is the largest rectangle with the aspect ratio of src centred inside box.
func fitRect(src, box image.Point) image.Rectangle {
	w, h := box.X, src.Y*box.X/src.X
	if h > box.Y {
		w, h = src.X*box.Y/src.Y, box.Y
	}
	x0 := (box.X - w) / 2
	y0 := (box.Y - h) / 2
	return image.Rect(x0, y0, x0+w, y0+h)
}

var (
	top    = color.RGBA{R: 0x1d, G: 0x3b, B: 0x6e, A: 0xff}
	bottom = color.RGBA{R: 0x0b, G: 0x15, B: 0x2b, A: 0xff}
)

// Default renders the fallback splash card: a vertical gradient with caption
// centred near the bottom.
func Default(size image.Point, caption string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		c := lerp(top, bottom, y, size.Y)
		for x := 0; x < size.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	if caption == "" {
		return img
	}
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.White), Face: basicfont.Face7x13}
	w := d.MeasureString(caption).Ceil()
	x := (size.X - w) / 2
	if x < 4 {
		x = 4
	}
	d.Dot = fixed.P(x, size.Y-size.Y/5)
	d.DrawString(caption)
	return img
}

func lerp(a, b color.RGBA, i, n int) color.RGBA {
	if n <= 1 {
		return a
	}
	mix := func(x, y uint8) uint8 { return uint8(int(x) + (int(y)-int(x))*i/(n-1)) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}
