// Package caserecord defines the canonical annotation record ("cid") attached
// to every observation and its documented defaults.
package caserecord

import (
	"time"
)

// Record is the case record analysts fill in. Nil pointers are stored as
// null; list fields default to empty lists and Online defaults to false.
type Record struct {
	ReferenceCode     *string    `json:"reference_code" yaml:"reference_code"`
	IncidentDate      *time.Time `json:"incident_date" yaml:"incident_date"`
	DateOfAcquisition *time.Time `json:"date_of_acquisition" yaml:"date_of_acquisition"`
	UploadDate        *time.Time `json:"upload_date" yaml:"upload_date"`
	StaffID           *string    `json:"staff_id" yaml:"staff_id"`
	SummaryAr         *string    `json:"summary_ar" yaml:"summary_ar"`
	SummaryEn         *string    `json:"summary_en" yaml:"summary_en"`
	Location          *string    `json:"location" yaml:"location"`
	Latitude          *float64   `json:"latitude" yaml:"latitude"`
	Longitude         *float64   `json:"longitude" yaml:"longitude"`
	Relevant          *bool      `json:"relevant" yaml:"relevant"`
	Verified          *bool      `json:"verified" yaml:"verified"`
	Public            *bool      `json:"public" yaml:"public"`
	OnlineTitle       *string    `json:"online_title" yaml:"online_title"`
	OnlineTitleAr     *string    `json:"online_title_ar" yaml:"online_title_ar"`
	OnlineTitleEn     *string    `json:"online_title_en" yaml:"online_title_en"`
	OnlineLink        *string    `json:"online_link" yaml:"online_link"`
	Description       *string    `json:"description" yaml:"description"`
	ChannelID         *string    `json:"channel_id" yaml:"channel_id"`
	ViewCount         *string    `json:"view_count" yaml:"view_count"`
	Filename          *string    `json:"filename" yaml:"filename"`
	Creator           *string    `json:"creator" yaml:"creator"`
	Generation        *string    `json:"generation" yaml:"generation"`
	ExistenceOriginal *bool      `json:"existence_original" yaml:"existence_original"`
	Edited            *bool      `json:"edited" yaml:"edited"`
	Online            bool       `json:"online" yaml:"online"`
	FileSize          *int64     `json:"file_size" yaml:"file_size"`
	Duration          *string    `json:"duration" yaml:"duration"`
	AcquiredFrom      *string    `json:"acquired_from" yaml:"acquired_from"`
	ChainOfCustody    *string    `json:"chain_of_custody" yaml:"chain_of_custody"`
	DateOfFixity      *time.Time `json:"date_of_fixity" yaml:"date_of_fixity"`
	MD5Hash           *string    `json:"md5_hash" yaml:"md5_hash"`
	SHA256Hash        *string    `json:"sha256_hash" yaml:"sha256_hash"`
	ContentType       *string    `json:"content_type" yaml:"content_type"`
	Language          *string    `json:"language" yaml:"language"`
	FindingAids       *string    `json:"finding_aids" yaml:"finding_aids"`
	GraphicContent    *bool      `json:"graphic_content" yaml:"graphic_content"`

	SecurityRestrictionStatus *string `json:"security_restriction_status" yaml:"security_restriction_status"`

	RightsOwner       *string    `json:"rights_owner" yaml:"rights_owner"`
	RightsDeclaration *string    `json:"rights_declaration" yaml:"rights_declaration"`
	CreatorWilling    *bool      `json:"creator_willing" yaml:"creator_willing"`
	Priority          *string    `json:"priority" yaml:"priority"`
	Keywords          []string   `json:"keywords" yaml:"keywords"`
	Notes             *string    `json:"notes" yaml:"notes"`
	DeviceUsed        *string    `json:"device_used" yaml:"device_used"`
	WeaponsUsed       []string   `json:"weapons_used" yaml:"weapons_used"`
	Landmarks         []string   `json:"landmarks" yaml:"landmarks"`
	Collections       []string   `json:"collections" yaml:"collections"`
	Weather           *string    `json:"weather" yaml:"weather"`
	TypeOfViolation   Violations `json:"type_of_violation" yaml:"type_of_violation"`
	ArmedGroup        *string    `json:"armed_group" yaml:"armed_group"`
}

// Violations holds one flag per violation category. Nil means not assessed.
type Violations struct {
	MassacresAndOtherUnlawfulKilling                        *bool `json:"massacres_and_other_unlawful_killing" yaml:"massacres_and_other_unlawful_killing"`
	ArbitraryArrestAndUnlawfulDetention                     *bool `json:"arbitrary_arrest_and_unlawful_detention" yaml:"arbitrary_arrest_and_unlawful_detention"`
	HostageTaking                                           *bool `json:"hostage_taking" yaml:"hostage_taking"`
	EnforcedDisappearance                                   *bool `json:"enforced_disappearance" yaml:"enforced_disappearance"`
	TortureAndIllTreatmentOfDetainees                       *bool `json:"torture_and_ill_treatment_of_detainees" yaml:"torture_and_ill_treatment_of_detainees"`
	SexualAndGenderBasedViolence                            *bool `json:"sexual_and_gender_based_violence" yaml:"sexual_and_gender_based_violence"`
	ViolationsOfChildrensRights                             *bool `json:"violations_of_childrens_rights" yaml:"violations_of_childrens_rights"`
	UnlawfulAttacks                                         *bool `json:"unlawful_attacks" yaml:"unlawful_attacks"`
	ViolationsAgainstSpecificallyProtectedPersonsAndObjects *bool `json:"violations_against_specifically_protected_persons_and_objects" yaml:"violations_against_specifically_protected_persons_and_objects"`
	UseOfIllegalWeapons                                     *bool `json:"use_of_illegal_weapons" yaml:"use_of_illegal_weapons"`
	SiegesAndViolationsOfEconomicSocialAndCulturalRights    *bool `json:"sieges_and_violations_of_economic_social_and_cultural_rights" yaml:"sieges_and_violations_of_economic_social_and_cultural_rights"`
	ArbitraryAndForcibleDisplacement                        *bool `json:"arbitrary_and_forcible_displacement" yaml:"arbitrary_and_forcible_displacement"`
}

// Default returns the baseline record every annotation starts from.
func Default() Record {
	return Record{
		Keywords:    []string{},
		WeaponsUsed: []string{},
		Landmarks:   []string{},
		Collections: []string{},
	}
}

// ToMap renders the record in the observation's wire shape. Every key is
// present; unset values are nil.
func (r Record) ToMap() map[string]any {
	return map[string]any{
		"reference_code":              value(r.ReferenceCode),
		"incident_date":               value(r.IncidentDate),
		"date_of_acquisition":         value(r.DateOfAcquisition),
		"upload_date":                 value(r.UploadDate),
		"staff_id":                    value(r.StaffID),
		"summary_ar":                  value(r.SummaryAr),
		"summary_en":                  value(r.SummaryEn),
		"location":                    value(r.Location),
		"latitude":                    value(r.Latitude),
		"longitude":                   value(r.Longitude),
		"relevant":                    value(r.Relevant),
		"verified":                    value(r.Verified),
		"public":                      value(r.Public),
		"online_title":                value(r.OnlineTitle),
		"online_title_ar":             value(r.OnlineTitleAr),
		"online_title_en":             value(r.OnlineTitleEn),
		"online_link":                 value(r.OnlineLink),
		"description":                 value(r.Description),
		"channel_id":                  value(r.ChannelID),
		"view_count":                  value(r.ViewCount),
		"filename":                    value(r.Filename),
		"creator":                     value(r.Creator),
		"generation":                  value(r.Generation),
		"existence_original":          value(r.ExistenceOriginal),
		"edited":                      value(r.Edited),
		"online":                      r.Online,
		"file_size":                   value(r.FileSize),
		"duration":                    value(r.Duration),
		"acquired_from":               value(r.AcquiredFrom),
		"chain_of_custody":            value(r.ChainOfCustody),
		"date_of_fixity":              value(r.DateOfFixity),
		"md5_hash":                    value(r.MD5Hash),
		"sha256_hash":                 value(r.SHA256Hash),
		"content_type":                value(r.ContentType),
		"language":                    value(r.Language),
		"finding_aids":                value(r.FindingAids),
		"graphic_content":             value(r.GraphicContent),
		"security_restriction_status": value(r.SecurityRestrictionStatus),
		"rights_owner":                value(r.RightsOwner),
		"rights_declaration":          value(r.RightsDeclaration),
		"creator_willing":             value(r.CreatorWilling),
		"priority":                    value(r.Priority),
		"keywords":                    list(r.Keywords),
		"notes":                       value(r.Notes),
		"device_used":                 value(r.DeviceUsed),
		"weapons_used":                list(r.WeaponsUsed),
		"landmarks":                   list(r.Landmarks),
		"collections":                 list(r.Collections),
		"weather":                     value(r.Weather),
		"type_of_violation":           r.TypeOfViolation.ToMap(),
		"armed_group":                 value(r.ArmedGroup),
	}
}

// ToMap renders the violation flags keyed by category.
func (v Violations) ToMap() map[string]any {
	return map[string]any{
		"massacres_and_other_unlawful_killing":                          value(v.MassacresAndOtherUnlawfulKilling),
		"arbitrary_arrest_and_unlawful_detention":                       value(v.ArbitraryArrestAndUnlawfulDetention),
		"hostage_taking":                                                value(v.HostageTaking),
		"enforced_disappearance":                                        value(v.EnforcedDisappearance),
		"torture_and_ill_treatment_of_detainees":                        value(v.TortureAndIllTreatmentOfDetainees),
		"sexual_and_gender_based_violence":                              value(v.SexualAndGenderBasedViolence),
		"violations_of_childrens_rights":                                value(v.ViolationsOfChildrensRights),
		"unlawful_attacks":                                              value(v.UnlawfulAttacks),
		"violations_against_specifically_protected_persons_and_objects": value(v.ViolationsAgainstSpecificallyProtectedPersonsAndObjects),
		"use_of_illegal_weapons":                                        value(v.UseOfIllegalWeapons),
		"sieges_and_violations_of_economic_social_and_cultural_rights":  value(v.SiegesAndViolationsOfEconomicSocialAndCulturalRights),
		"arbitrary_and_forcible_displacement":                           value(v.ArbitraryAndForcibleDisplacement),
	}
}

func value[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func list(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
