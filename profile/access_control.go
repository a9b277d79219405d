package profile

import "github.com/jrsteele09/go-auth-session/internal/utils"

// Partner codes with special meaning.
const (
	PartnerCodeAll     = "ALL"
	PartnerCodeCompany = "COMPANY"
)

func partnerCode(p *UserProfile) string {
	if p == nil {
		return ""
	}
	return utils.Value(p.PartnerCode)
}

// CanEditPartner reports whether the user may edit partners.
func CanEditPartner(p *UserProfile) bool {
	return partnerCode(p) == PartnerCodeAll
}

func CanViewAllPartners(p *UserProfile) bool {
	return partnerCode(p) == PartnerCodeAll
}

func CanManageFreelancers(p *UserProfile) bool {
	return partnerCode(p) == PartnerCodeAll
}

// AccessiblePartnerCodes lists the partner codes the user may see.
// An empty result for a user with code ALL means every partner.
func AccessiblePartnerCodes(p *UserProfile) []string {
	code := partnerCode(p)
	if code == "" || code == PartnerCodeAll {
		return []string{}
	}
	return []string{code}
}

func HasPartnerAccess(p *UserProfile, target string) bool {
	code := partnerCode(p)
	if code == "" {
		return false
	}
	return code == PartnerCodeAll || code == target
}
