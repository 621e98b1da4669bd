package dhis2

import (
	"sort"
	"strconv"
	"time"

	"bloodbank/internal/domain"
)

// DataValue is one cell of a DHIS2 data value set.
type DataValue struct {
	DataElement          string `json:"dataElement"`
	Period               string `json:"period"`
	OrgUnit              string `json:"orgUnit"`
	Value                string `json:"value"`
	AttributeOptionCombo string `json:"attributeOptionCombo,omitempty"`
}

// ElementIDs holds the registry identifiers for the data elements this
// service writes. All of them are configured out-of-band to match the
// target DHIS2 instance.
type ElementIDs struct {
	BloodType      string
	Volume         string
	InventoryCount string
}

// AttributeIDs holds the tracked-entity identifiers for donor export.
type AttributeIDs struct {
	TrackedEntityType string
	DonorID           string
	DonorAge          string
	DonorGender       string
}

// Mapper converts domain records into DHIS2 payloads.
type Mapper struct {
	OrgUnit    string
	Elements   ElementIDs
	Attributes AttributeIDs
}

// DonationValues maps one donation to its data values, keyed by the daily
// period of the donation date.
func (m Mapper) DonationValues(d domain.Donation) []DataValue {
	period := d.DonationDate.Format("20060102")
	return []DataValue{
		{
			DataElement: m.Elements.BloodType,
			Period:      period,
			OrgUnit:     m.OrgUnit,
			Value:       string(d.BloodType),
		},
		{
			DataElement: m.Elements.Volume,
			Period:      period,
			OrgUnit:     m.OrgUnit,
			Value:       strconv.FormatFloat(d.VolumeCollected, 'f', -1, 64),
		},
	}
}

// InventoryValues aggregates products into per blood-type-and-status counts
// for the current monthly period. Output order is deterministic.
func (m Mapper) InventoryValues(products []domain.BloodProduct, now time.Time) []DataValue {
	counts := map[string]int{}
	for _, p := range products {
		counts[string(p.BloodType)+"_"+string(p.Status)]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	period := now.Format("200601")
	values := make([]DataValue, 0, len(keys))
	for _, k := range keys {
		values = append(values, DataValue{
			DataElement:          m.Elements.InventoryCount,
			Period:               period,
			OrgUnit:              m.OrgUnit,
			Value:                strconv.Itoa(counts[k]),
			AttributeOptionCombo: k + "_COMBO",
		})
	}
	return values
}

// TrackedEntity is a donor registration payload.
type TrackedEntity struct {
	TrackedEntityType string                   `json:"trackedEntityType"`
	OrgUnit           string                   `json:"orgUnit"`
	Attributes        []TrackedEntityAttribute `json:"attributes"`
}

// TrackedEntityAttribute is one attribute of a tracked entity instance.
type TrackedEntityAttribute struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// TrackedEntityFor maps a donor to a tracked entity instance.
func (m Mapper) TrackedEntityFor(d domain.Donor) TrackedEntity {
	return TrackedEntity{
		TrackedEntityType: m.Attributes.TrackedEntityType,
		OrgUnit:           m.OrgUnit,
		Attributes: []TrackedEntityAttribute{
			{Attribute: m.Attributes.DonorID, Value: d.ID},
			{Attribute: m.Attributes.DonorAge, Value: strconv.Itoa(d.Age)},
			{Attribute: m.Attributes.DonorGender, Value: string(d.Gender)},
		},
	}
}
