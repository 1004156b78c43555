package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/speedata/imageimport"
	"github.com/speedata/imageimport/bag"
	"github.com/speedata/imageimport/pdfstream"
	"github.com/speedata/imageimport/resource"
	"github.com/speedata/optionparser"
)

func dothings() error {
	var widthStr, heightStr, qualityStr string
	verbose := false

	op := optionparser.NewOptionParser()
	op.Banner = "Usage: imageimport [options] reference"
	op.On("--width WD", "Requested width in pixels", &widthStr)
	op.On("--height HT", "Requested height in pixels", &heightStr)
	op.On("--quality Q", "JPEG quality (0-100)", &qualityStr)
	op.On("-v", "--verbose", "Verbose logging", &verbose)
	if err := op.Parse(); err != nil {
		return err
	}
	if len(op.Extra) != 1 {
		op.Help()
		return nil
	}
	if verbose {
		bag.SetLogLevel(bag.DebugLevel)
	} else {
		bag.SetLogLevel(bag.WarnLevel)
	}

	width := atoiDefault(widthStr, 0)
	height := atoiDefault(heightStr, 0)
	quality := atoiDefault(qualityStr, 100)

	im := imageimport.New(resource.NewLoader(), nil, pdfstream.Finalizers())
	rec, err := im.Import(op.Extra[0], width, height, quality, false)
	if err != nil {
		return err
	}

	fmt.Printf("key:          %s\n", rec.Key)
	fmt.Printf("format:       %s (target %s)\n", rec.Format, rec.TargetFormat)
	fmt.Printf("dimensions:   %dx%d\n", rec.Width, rec.Height)
	fmt.Printf("color space:  %s (%d bit, %d channels)\n", rec.ColorSpace, rec.BitsPerChannel, rec.ChannelCount)
	fmt.Printf("stream:       %s, %d bytes\n", rec.StreamFilter, len(rec.FinalData))
	fmt.Printf("recoded:      %v\n", rec.Recoded)
	if rec.Mask != nil {
		fmt.Printf("alpha split:  plain %dx%d, mask %dx%d (%s)\n",
			rec.Plain.Width, rec.Plain.Height, rec.Mask.Width, rec.Mask.Height, rec.Mask.ColorSpace)
	}
	return nil
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func main() {
	if err := dothings(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
