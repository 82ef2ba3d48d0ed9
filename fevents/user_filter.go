package fevents

import (
	"sort"

	"github.com/flagcore/flagcore-go/fuser"
	"github.com/flagcore/flagcore-go/fvalue"
)

// filteredUser is the wire shape of a user after private attributes have
// been removed: optional fields are nil pointers when absent or scrubbed,
// and every scrubbed attribute's name is recorded in PrivateAttrs.
type filteredUser struct {
	Key          string        `json:"key"`
	Secondary    *string       `json:"secondary,omitempty"`
	IP           *string       `json:"ip,omitempty"`
	Country      *string       `json:"country,omitempty"`
	Email        *string       `json:"email,omitempty"`
	FirstName    *string       `json:"firstName,omitempty"`
	LastName     *string       `json:"lastName,omitempty"`
	Avatar       *string       `json:"avatar,omitempty"`
	Name         *string       `json:"name,omitempty"`
	Anonymous    *bool         `json:"anonymous,omitempty"`
	Custom       *fvalue.Value `json:"custom,omitempty"`
	PrivateAttrs []string      `json:"privateAttrs,omitempty"`
}

type scrubbedUser struct {
	filteredUser filteredUser
}

// userFilter redacts private attributes from users before they are
// serialized into an event payload. An attribute is private if the user
// marked it private on the builder, its name appears in the
// pipeline-wide PrivateAttributeNames list, or AllAttributesPrivate is set.
type userFilter struct {
	allAttributesPrivate bool
	globalPrivateAttrs   map[string]bool
}

func newUserFilter(config Config) userFilter {
	global := make(map[string]bool, len(config.PrivateAttributeNames))
	for _, name := range config.PrivateAttributeNames {
		global[name] = true
	}
	return userFilter{allAttributesPrivate: config.AllAttributesPrivate, globalPrivateAttrs: global}
}

func (f userFilter) isPrivate(name string, perUserPrivate map[string]bool) bool {
	if f.allAttributesPrivate {
		return true
	}
	if f.globalPrivateAttrs[name] {
		return true
	}
	return perUserPrivate[name]
}

// scrubUser produces the redacted wire form of user.
func (f userFilter) scrubUser(user fuser.User) scrubbedUser {
	perUserPrivate := make(map[string]bool)
	for _, name := range user.GetPrivateAttributeNames() {
		perUserPrivate[name] = true
	}

	var privateAttrs []string
	out := filteredUser{Key: user.GetKey()}

	optionalAttrs := []struct {
		name   string
		value  fuser.OptionalString
		assign func(*string)
	}{
		{string(fuser.SecondaryKeyAttribute), user.GetSecondaryKey(), func(p *string) { out.Secondary = p }},
		{string(fuser.IPAttribute), user.GetIP(), func(p *string) { out.IP = p }},
		{string(fuser.CountryAttribute), user.GetCountry(), func(p *string) { out.Country = p }},
		{string(fuser.EmailAttribute), user.GetEmail(), func(p *string) { out.Email = p }},
		{string(fuser.FirstNameAttribute), user.GetFirstName(), func(p *string) { out.FirstName = p }},
		{string(fuser.LastNameAttribute), user.GetLastName(), func(p *string) { out.LastName = p }},
		{string(fuser.AvatarAttribute), user.GetAvatar(), func(p *string) { out.Avatar = p }},
		{string(fuser.NameAttribute), user.GetName(), func(p *string) { out.Name = p }},
	}
	for _, attr := range optionalAttrs {
		if !attr.value.IsDefined() {
			continue
		}
		if f.isPrivate(attr.name, perUserPrivate) {
			privateAttrs = append(privateAttrs, attr.name)
			continue
		}
		attr.assign(attr.value.AsPointer())
	}

	if anon, ok := user.GetAnonymousOptional(); ok {
		out.Anonymous = &anon
	}

	customKeys := user.GetCustomKeys()
	if len(customKeys) > 0 {
		builder := fvalue.ObjectBuild(len(customKeys))
		anyKept := false
		for _, key := range customKeys {
			if f.isPrivate(key, perUserPrivate) {
				privateAttrs = append(privateAttrs, key)
				continue
			}
			value, _ := user.GetCustom(key)
			builder.Set(key, value)
			anyKept = true
		}
		if anyKept {
			built := builder.Build()
			out.Custom = built.AsPointer()
		}
	}

	if len(privateAttrs) > 0 {
		sort.Strings(privateAttrs)
		out.PrivateAttrs = privateAttrs
	}

	return scrubbedUser{filteredUser: out}
}
