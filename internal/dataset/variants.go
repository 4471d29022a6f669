package dataset

import (
	"errors"
	"fmt"
	"time"

	"github.com/christuart/ghrsst/internal/model"
)

// DefaultBaseURL is the PO.DAAC OPeNDAP root all built-in templates start with.
const DefaultBaseURL = "https://podaac-opendap.jpl.nasa.gov/opendap"

// ErrUnknownSource is returned by Lookup for names it does not recognise.
var ErrUnknownSource = errors.New("dataset: unknown source")

// GeoPolarBlended is the OSPO Geo-Polar Blended day+night analysis, 0.05°
// grid, available from 2014-06-02.
var GeoPolarBlended = Descriptor{
	LatMin:           -90,
	LatMax:           90,
	LatLen:           3600,
	LonMin:           -180,
	LonMax:           180,
	LonLen:           7200,
	Variable:         "analysed_sst",
	Template:         DefaultBaseURL + "/hyrax/allData/ghrsst/data/GDS2/L4/GLOB/OSPO/Geo_Polar_Blended/v1/%04d/%03d/%04d%02d%02d000000-OSPO-L4_GHRSST-SSTfnd-Geo_Polar_Blended-GLOB-v02.0-fv01.0.nc",
	Short:            "gpb",
	CompressedBefore: time.Date(2016, 2, 11, 0, 0, 0, 0, time.UTC),
}

// GeoPolarBlendedNight is the night-only analysis on the same grid as
// GeoPolarBlended.
var GeoPolarBlendedNight = func() Descriptor {
	d := GeoPolarBlended
	d.Template = DefaultBaseURL + "/allData/ghrsst/data/GDS2/L4/GLOB/OSPO/Geo_Polar_Blended_Night/v1/%04d/%03d/%04d%02d%02d000000-OSPO-L4_GHRSST-SSTfnd-Geo_Polar_Blended_Night-GLOB-v02.0-fv01.0.nc"
	d.Short = "gpb_night"
	return d
}()

// CMCZeroPointTwoDeg is the CMC 0.2° analysis, 1990-09-01 to 2017-03-17.
// Its files are never compressed.
var CMCZeroPointTwoDeg = Descriptor{
	LatMin:   -90,
	LatMax:   90,
	LatLen:   901,
	LonMin:   -180,
	LonMax:   179.800003,
	LonLen:   1800,
	Variable: "analysed_sst",
	Template: DefaultBaseURL + "/hyrax/allData/ghrsst/data/GDS2/L4/GLOB/CMC/CMC0.2deg/v2/%04d/%03d/%04d%02d%02d120000-CMC-L4_GHRSST-SSTfnd-CMC0.2deg-GLOB-v02.0-fv02.0.nc",
	Short:    "cmc0.2",
}

var bySource = map[model.Source]Descriptor{
	model.GeoPolarBlended:      GeoPolarBlended,
	model.GeoPolarBlendedNight: GeoPolarBlendedNight,
	model.CMCZeroPointTwoDeg:   CMCZeroPointTwoDeg,
}

// Lookup returns the descriptor for a command-line source name or a short
// name such as "gpb_night".
func Lookup(name model.Source) (Descriptor, error) {
	if err := name.Validate(); err == nil {
		return bySource[name], nil
	}
	for _, d := range bySource {
		if d.Short == string(name) {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w %q", ErrUnknownSource, string(name))
}
