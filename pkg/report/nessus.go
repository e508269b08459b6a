package report

import (
	"bytes"
	"encoding/xml"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/project-copacetic/nessus/pkg/errdefs"
)

// document mirrors NessusClientData with the two required sections as
// pointers so a missing section can be told apart from an empty one.
type document struct {
	XMLName xml.Name `xml:"NessusClientData_v2"`
	Policy  *Policy  `xml:"Policy"`
	Report  *Report  `xml:"Report"`
}

// NessusParser reads .nessus export files.
type NessusParser struct{}

func NewNessusParser() *NessusParser {
	return &NessusParser{}
}

// Parse reads and decodes the export at file.
func (p *NessusParser) Parse(file string) (*NessusClientData, error) {
	return ParseFile(file)
}

// ParseFile reads and decodes the export at path.
func ParseFile(path string) (*NessusClientData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	nd, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return nd, nil
}

// Parse decodes a complete export document. Decoding is all-or-nothing: on
// error no partial result is returned.
func Parse(data []byte) (*NessusClientData, error) {
	var doc document
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, errdefs.Parse("decode report", err)
	}
	if doc.Report == nil {
		return nil, errdefs.Parse("decode report", errors.New("missing Report section"))
	}
	if doc.Policy == nil {
		return nil, errdefs.Parse("decode report", errors.New("missing Policy section"))
	}

	nd := &NessusClientData{
		XMLName: doc.XMLName,
		Policy:  *doc.Policy,
		Report:  *doc.Report,
	}
	log.Debugf("Parsed report %q: %d hosts, %d findings", nd.Report.Name, len(nd.Report.Hosts), nd.Report.ItemCount())
	return nd, nil
}
