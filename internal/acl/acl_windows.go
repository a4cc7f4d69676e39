//go:build windows

package acl

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/BinToss/DeadLock/pkg/model"
)

// readACL lists the DACL of path. A NULL DACL grants everyone full access and
// is reported as a single allow entry for Everyone.
func readACL(path string) ([]model.ACE, error) {
	sd, err := windows.GetNamedSecurityInfo(path, windows.SE_FILE_OBJECT, windows.DACL_SECURITY_INFORMATION)
	if err != nil {
		return nil, err
	}
	dacl, _, err := sd.DACL()
	if err == windows.ERROR_OBJECT_NOT_FOUND || (err == nil && dacl == nil) {
		return []model.ACE{{Principal: "Everyone", Type: model.ACEAllow, Rights: fmt.Sprintf("%#x", uint32(windows.GENERIC_ALL))}}, nil
	}
	if err != nil {
		return nil, err
	}

	aces := make([]model.ACE, 0, dacl.AceCount)
	for i := uint32(0); i < uint32(dacl.AceCount); i++ {
		var ace *windows.ACCESS_ALLOWED_ACE
		if err := windows.GetAce(dacl, i, &ace); err != nil {
			return nil, err
		}
		var typ model.ACEType
		switch ace.Header.AceType {
		case windows.ACCESS_ALLOWED_ACE_TYPE:
			typ = model.ACEAllow
		case windows.ACCESS_DENIED_ACE_TYPE:
			typ = model.ACEDeny
		default:
			// audit, object and callback entries carry no plain allow/deny
			continue
		}
		sid := (*windows.SID)(unsafe.Pointer(&ace.SidStart))
		aces = append(aces, model.ACE{
			Principal: principal(sid),
			Type:      typ,
			Rights:    fmt.Sprintf("%#x", uint32(ace.Mask)),
			Inherited: ace.Header.AceFlags&windows.INHERITED_ACE != 0,
		})
	}
	return aces, nil
}

func principal(sid *windows.SID) string {
	account, domain, _, err := sid.LookupAccount("")
	if err != nil {
		return sid.String()
	}
	if domain == "" {
		return account
	}
	return domain + `\` + account
}
