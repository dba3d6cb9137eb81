package domain

import "strings"

// Properties is the property bag of one hotspot feature. Every field is
// nullable; the set mirrors the columns of [Header].
type Properties struct {
	CreatedAt  Value `json:"_createdAt"`
	CreatedBy  Value `json:"_createdBy"`
	ID         Value `json:"_id"`
	UpdatedAt  Value `json:"_updatedAt"`
	UpdatedBy  Value `json:"_updatedBy"`
	AcqDate    Value `json:"acq_date"`
	AcqTime    Value `json:"acq_time"`
	Amphoe     Value `json:"amphoe"`
	AmphoeT    Value `json:"amphoe_t"`
	ApCode     Value `json:"ap_code"`
	ApEn       Value `json:"ap_en"`
	ApIdn      Value `json:"ap_idn"`
	ApTn       Value `json:"ap_tn"`
	BrightTi4  Value `json:"bright_ti4"`
	BrightTi5  Value `json:"bright_ti5"`
	Changwat   Value `json:"changwat"`
	Confidence Value `json:"confidence"`
	CtEn       Value `json:"ct_en"`
	CtTn       Value `json:"ct_tn"`
	FAlarm     Value `json:"f_alarm"`
	FileName   Value `json:"file_name"`
	FRP        Value `json:"frp"`
	HotspotID  Value `json:"hotspotid"`
	Instrument Value `json:"instrument"`
	Latitude   Value `json:"latitude"`
	LinkGmap   Value `json:"linkgmap"`
	Longitude  Value `json:"longitude"`
	LuCode     Value `json:"lu_code"`
	LuHp       Value `json:"lu_hp"`
	LuHpName   Value `json:"lu_hp_name"`
	LuName     Value `json:"lu_name"`
	Moo1       Value `json:"moo_1"`
	Name1      Value `json:"name_1"`
	ProvinceT  Value `json:"province_t"`
	PvCode     Value `json:"pv_code"`
	PvEn       Value `json:"pv_en"`
	PvIdn      Value `json:"pv_idn"`
	PvTn       Value `json:"pv_tn"`
	ReNesdb    Value `json:"re_nesdb"`
	ReRoyin    Value `json:"re_royin"`
	Satellite  Value `json:"satellite"`
	Scan       Value `json:"scan"`
	Tambol     Value `json:"tambol"`
	TambonT    Value `json:"tambon_t"`
	TbCode     Value `json:"tb_code"`
	TbEn       Value `json:"tb_en"`
	TbIdn      Value `json:"tb_idn"`
	TbTn       Value `json:"tb_tn"`
	ThDate     Value `json:"th_date"`
	ThTime     Value `json:"th_time"`
	Timestamp  Value `json:"timestamp"`
	Track      Value `json:"track"`
	UtmE       Value `json:"utm_e"`
	UtmN       Value `json:"utm_n"`
	UtmZone    Value `json:"utm_zone"`
	VAngle     Value `json:"v_angle"`
	VDirect    Value `json:"v_direct"`
	VDist      Value `json:"v_dist"`
	Version    Value `json:"version"`
	Village    Value `json:"village"`
}

// Feature is a single hotspot detection.
type Feature struct {
	Properties Properties `json:"properties"`
}

// Page is one response of the paginated feed.
type Page struct {
	Features []Feature `json:"features"`
	// NumberMatched is the total match count reported by the feed. Zero means
	// the feed did not report it.
	NumberMatched int `json:"numberMatched,omitempty"`
}

// Row is one normalized hotspot in [Header] order. Null properties are nil.
type Row []any

// Semantic field names used to build the aggregation views.
const (
	FieldCountry  = "ct_en"
	FieldProvince = "pv_tn"
	FieldLandUse  = "lu_name"

	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
)

// MandatoryFields must all be present in the working area header before any
// view is generated.
var MandatoryFields = []string{FieldCountry, FieldProvince, FieldLandUse}

// Header is the canonical column order of the working area.
var Header = []string{
	"_createdAt", "_createdBy", "_id", "_updatedAt", "_updatedBy", "acq_date", "acq_time",
	"amphoe", "amphoe_t", "ap_code", "ap_en", "ap_idn", "ap_tn", "bright_ti4", "bright_ti5",
	"changwat", "confidence", "ct_en", "ct_tn", "f_alarm", "file_name", "frp", "hotspotid",
	"instrument", "latitude", "linkgmap", "longitude", "lu_code", "lu_hp", "lu_hp_name",
	"lu_name", "moo_1", "name_1", "province_t", "pv_code", "pv_en", "pv_idn", "pv_tn",
	"re_nesdb", "re_royin", "satellite", "scan", "tambol", "tambon_t", "tb_code", "tb_en",
	"tb_idn", "tb_tn", "th_date", "th_time", "timestamp", "track", "utm_e", "utm_n",
	"utm_zone", "v_angle", "v_direct", "v_dist", "version", "village",
}

// Normalize flattens a feature's properties into a [Header]-ordered row.
// th_date is cut down to the text before its first "T".
func Normalize(p Properties) Row {
	return Row{
		p.CreatedAt.Any(), p.CreatedBy.Any(), p.ID.Any(), p.UpdatedAt.Any(), p.UpdatedBy.Any(), p.AcqDate.Any(), p.AcqTime.Any(),
		p.Amphoe.Any(), p.AmphoeT.Any(), p.ApCode.Any(), p.ApEn.Any(), p.ApIdn.Any(), p.ApTn.Any(), p.BrightTi4.Any(), p.BrightTi5.Any(),
		p.Changwat.Any(), p.Confidence.Any(), p.CtEn.Any(), p.CtTn.Any(), p.FAlarm.Any(), p.FileName.Any(), p.FRP.Any(), p.HotspotID.Any(),
		p.Instrument.Any(), p.Latitude.Any(), p.LinkGmap.Any(), p.Longitude.Any(), p.LuCode.Any(), p.LuHp.Any(), p.LuHpName.Any(),
		p.LuName.Any(), p.Moo1.Any(), p.Name1.Any(), p.ProvinceT.Any(), p.PvCode.Any(), p.PvEn.Any(), p.PvIdn.Any(), p.PvTn.Any(),
		p.ReNesdb.Any(), p.ReRoyin.Any(), p.Satellite.Any(), p.Scan.Any(), p.Tambol.Any(), p.TambonT.Any(), p.TbCode.Any(), p.TbEn.Any(),
		p.TbIdn.Any(), p.TbTn.Any(), datePart(p.ThDate), p.ThTime.Any(), p.Timestamp.Any(), p.Track.Any(), p.UtmE.Any(), p.UtmN.Any(),
		p.UtmZone.Any(), p.VAngle.Any(), p.VDirect.Any(), p.VDist.Any(), p.Version.Any(), p.Village.Any(),
	}
}

// datePart returns the text before the first "T", or "" when the value is null.
func datePart(v Value) string {
	if !v.Valid() {
		return ""
	}
	date, _, _ := strings.Cut(v.String(), "T")
	return date
}
