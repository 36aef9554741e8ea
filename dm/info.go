package dm

import "github.com/wippyai/gatan-dm/tagstore"

// InfoPrefix is the tag group holding acquisition metadata of the main image.
const InfoPrefix = "root.ImageList.1.ImageTags."

// InfoField names one experiment info value and where it is stored.
type InfoField struct {
	Name string
	Tag  string
}

var infoFields = []InfoField{
	{"GMS Version (created)", "GMS Version.Created"},
	{"GMS Version (saved)", "GMS Version.Saved"},
	{"Device", "Acquisition.Device.Name"},
	{"Acquisition Date", "DataBar.Acquisition Date"},
	{"Acquisition Time", "DataBar.Acquisition Time"},
	{"Binning", "DataBar.Binning"},
	{"Voltage", "Microscope Info.Voltage"},
	{"Formatted Voltage", "Microscope Info.Formatted Voltage"},
	{"Indicated Magnification", "Microscope Info.Indicated Magnification"},
	{"Formatted Indicated Magnification", "Microscope Info.Formatted Indicated Mag"},
	{"Operation Mode", "Microscope Info.Operation Mode"},
	{"Microscope", "Session Info.Microscope"},
	{"Operator", "Session Info.Operator"},
	{"Specimen", "Session Info.Specimen"},
	// Written by older Digital Micrograph releases.
	{"Name", "Microscope Info.Name"},
	{"Microscope (legacy)", "Microscope Info.Microscope"},
	{"Operator (legacy)", "Microscope Info.Operator"},
	{"Specimen (legacy)", "Microscope Info.Specimen"},
}

// InfoKeys returns the experiment info table in display order. Tag is
// relative to InfoPrefix.
func InfoKeys() []InfoField {
	out := make([]InfoField, len(infoFields))
	copy(out, infoFields)
	return out
}

// ExperimentInfo collects the fields present in store, keyed by field name.
func ExperimentInfo(store *tagstore.Store, fields []InfoField) map[string]string {
	info := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := store.Get(InfoPrefix + f.Tag); ok {
			info[f.Name] = v
		}
	}
	return info
}

// Info returns the experiment info fields present in the file.
func (f *File) Info() map[string]string {
	return ExperimentInfo(f.Tags, infoFields)
}
