package buildlog

import (
	"encoding/xml"
	"path/filepath"
)

// logVersion is the on-disk format version of the buildlog artifact.
const logVersion = "2.0"

type xmlLog struct {
	XMLName    xml.Name       `xml:"buildlog"`
	Version    string         `xml:"version"`
	OutPath    string         `xml:"outpath"`
	Operations []xmlOperation `xml:"operation"`
}

type xmlOperation struct {
	Module      xmlModule `xml:"module"`
	Source      string    `xml:"source,omitempty"`
	Destination string    `xml:"destination,omitempty"`
}

type xmlModule struct {
	Name string `xml:"name,attr"`
}

// ToXML renders the complete build log relative to base as the
// buildlog.xml artifact.
func (l *BuildLog) ToXML(base string) ([]byte, error) {
	out := xmlLog{
		Version: logVersion,
		OutPath: relativize(l.outpath, base),
	}
	for _, op := range l.Operations() {
		out.Operations = append(out.Operations, xmlOperation{
			Module:      xmlModule{Name: op.Module},
			Source:      relativize(op.Source, base),
			Destination: relativize(op.Destination, base),
		})
	}
	data, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

// FromXML reads a previously written buildlog artifact. Paths
// are re-anchored below base.
func FromXML(data []byte, base string) (*BuildLog, error) {
	var in xmlLog
	if err := xml.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	log := New(filepath.Join(base, in.OutPath))
	for _, op := range in.Operations {
		restored := Operation{
			Module:      op.Module.Name,
			Source:      rebase(op.Source, base),
			Destination: rebase(op.Destination, base),
		}
		log.ops = append(log.ops, restored)
		if restored.Destination != "" {
			log.byDest[filepath.Clean(restored.Destination)] = restored
		}
	}
	return log, nil
}

func relativize(path, base string) string {
	if path == "" || base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}

func rebase(path, base string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
