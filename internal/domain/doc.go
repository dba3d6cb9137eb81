// Package domain models GISTDA VIIRS hotspot records and the tabular
// dataset they are loaded into.
//
// # Data Source
//
// Hotspots come from the GISTDA API gateway
// (https://api-gateway.gistda.or.th/api/2.0/resources/features/viirs/1day),
// which serves the last day of VIIRS active-fire detections as a paginated
// GeoJSON-like feature collection:
//
//	GET <endpoint>?api_key=<key>&limit=<n>&offset=<m>
//	{"numberMatched": 2412, "features": [{"properties": {...}}, ...]}
//
// numberMatched is optional; when absent (or zero) the last page is detected by
// a short page instead.
//
// # Feed Conventions
//
// Property names are flat snake_case keys. Administrative units come in several
// languages and code systems:
//
//	ct_en / ct_tn        country (English / Thai)
//	pv_en / pv_tn        province (English / Thai), pv_code, pv_idn
//	ap_* / tb_*          district (amphoe) and sub-district (tambon)
//	lu_code / lu_name    land-use category
//
// th_date is an ISO timestamp ("2026-10-17T00:00:00.000Z") that is reduced to
// its date portion during normalization. Every property is optional; missing
// values become empty cells, never errors.
//
// # Dataset Layout
//
// A dataset holds exactly one working area with the raw rows of the current run
// in [Header] order, plus derived aggregation views that are regenerated on
// every run. Views are described by a [ViewQuery] (filter, group key, count,
// descending order, labels) so each storage backend can materialize them with
// its own mechanism.
package domain
