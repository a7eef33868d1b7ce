package report

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/couchcryptid/sterileloop/internal/overlay"
	shp "github.com/jonas-p/go-shp"
)

// wgs84PRJ is the ESRI projection definition for plain longitude/latitude.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// Shapefile attribute columns. DBF field names are limited to ten characters.
var shapeFields = []shp.Field{
	shp.StringField("STATE", 64),
	shp.FloatField("VALUE_KG", 18, 3),
	shp.FloatField("TOTAL_LBS", 18, 0),
	shp.FloatField("RADIUS", 12, 0),
	shp.StringField("COLOR", 24),
	shp.StringField("TOP_CMPD", 64),
	shp.NumberField("TOP_YEAR", 4),
}

// WriteShapefileZip writes the features as a zipped ESRI point shapefile
// named base (.shp, .shx, .dbf and .prj).
func WriteShapefileZip(w io.Writer, features []overlay.Feature, base string) error {
	if len(features) == 0 {
		return ErrNothingToRender
	}
	dir, err := os.MkdirTemp("", "sterileloop-shp-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := writeShapefile(filepath.Join(dir, base), features); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, base+".prj"), []byte(wgs84PRJ), 0o600); err != nil {
		return fmt.Errorf("write projection: %w", err)
	}

	zw := zip.NewWriter(w)
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		if err := addFile(zw, filepath.Join(dir, base+ext), base+ext); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeShapefile(path string, features []overlay.Feature) error {
	sw, err := shp.Create(path+".shp", shp.POINT)
	if err != nil {
		return fmt.Errorf("create shapefile: %w", err)
	}
	defer sw.Close()

	if err := sw.SetFields(shapeFields); err != nil {
		return fmt.Errorf("set shapefile fields: %w", err)
	}
	for _, f := range features {
		row := int(sw.Write(&shp.Point{X: f.Center.Lng, Y: f.Center.Lat}))
		attrs := []any{
			f.State,
			f.Value,
			f.Popup.TotalLbs,
			f.Radius,
			f.Color.String(),
			f.Popup.TopCompound,
			f.Popup.TopYear,
		}
		for i, v := range attrs {
			if err := sw.WriteAttribute(row, i, v); err != nil {
				return fmt.Errorf("write %s attribute %s: %w", f.State, shapeFields[i].String(), err)
			}
		}
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s to archive: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}
