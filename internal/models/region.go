package models

import "fmt"

// Region is the upstream API namespace an account id belongs to.
type Region string

const (
	RegionRU   Region = "ru"
	RegionEU   Region = "eu"
	RegionCom  Region = "com"
	RegionAsia Region = "asia"
)

// AllRegions lists every recognized region.
func AllRegions() []Region {
	return []Region{RegionRU, RegionEU, RegionCom, RegionAsia}
}

// APIRegions lists the regions that have a live upstream API, used as the
// default `--region` filter when the caller does not specify one.
func APIRegions() []Region {
	return []Region{RegionEU, RegionCom, RegionAsia}
}

// Valid reports whether r is one of the closed set of known regions.
func (r Region) Valid() bool {
	switch r {
	case RegionRU, RegionEU, RegionCom, RegionAsia:
		return true
	default:
		return false
	}
}

// accountIDBand is the exclusive upper bound of a region's account id
// range (its lower bound is the previous band's ceiling), mirroring the numeric bands the upstream
// service itself partitions ids by.
type accountIDBand struct {
	region   Region
	ceiling  int64 // ids strictly below this ceiling belong to region
}

// id bands are ordered ascending by ceiling; the first band whose ceiling
// exceeds id wins.
var idBands = []accountIDBand{
	{RegionRU, 500_000_000},
	{RegionEU, 1_000_000_000},
	{RegionCom, 2_000_000_000},
	{RegionAsia, 3_100_000_000},
}

// ErrUnmappableAccountID is returned by RegionFromAccountID when an id
// falls outside every known band; callers should treat this as a
// DataInvariant violation: count it and skip the row.
var ErrUnmappableAccountID = fmt.Errorf("account id does not map to a known region")

// RegionFromAccountID derives the invariant region for an account id from
// its fixed numeric band. A region, once derived, never changes for that
// id.
func RegionFromAccountID(id int64) (Region, error) {
	for _, band := range idBands {
		if id < band.ceiling {
			return band.region, nil
		}
	}
	return "", ErrUnmappableAccountID
}
