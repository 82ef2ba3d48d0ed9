// Package fuser provides the end-user representation evaluated against flag
// rules, along with a builder for constructing users and marking individual
// attributes private.
package fuser

import (
	"encoding/json"
	"sort"

	"github.com/flagcore/flagcore-go/fvalue"
)

// Attribute names the user's built-in attributes, used both for clause
// matching ("attribute" resolves to a built-in first, then to custom) and
// for marking attributes private.
type Attribute string

const (
	KeyAttribute       Attribute = "key"
	SecondaryKeyAttribute Attribute = "secondary"
	IPAttribute        Attribute = "ip"
	CountryAttribute   Attribute = "country"
	EmailAttribute     Attribute = "email"
	FirstNameAttribute Attribute = "firstName"
	LastNameAttribute  Attribute = "lastName"
	AvatarAttribute    Attribute = "avatar"
	NameAttribute      Attribute = "name"
	AnonymousAttribute Attribute = "anonymous"
)

// User is the end-user description evaluated against a flag's rules. The
// only mandatory property is Key. Construct one with NewUser,
// NewAnonymousUser, or (preferably) NewUserBuilder.
//
// User values are immutable once built; modify a copy via
// NewUserBuilderFromUser instead of mutating fields in place.
type User struct {
	key                   string
	secondary             OptionalString
	ip                    OptionalString
	country               OptionalString
	email                 OptionalString
	firstName             OptionalString
	lastName              OptionalString
	avatar                OptionalString
	name                  OptionalString
	anonymous             bool
	hasAnonymous          bool
	custom                map[string]fvalue.Value
	privateAttributeNames []string
}

// NewUser creates a new user identified by the given key.
func NewUser(key string) User {
	return User{key: key}
}

// NewAnonymousUser creates a new anonymous user identified by the given key.
func NewAnonymousUser(key string) User {
	return User{key: key, anonymous: true, hasAnonymous: true}
}

// GetKey returns the unique key of the user.
func (u User) GetKey() string { return u.key }

// GetSecondaryKey returns the secondary key of the user, if any.
func (u User) GetSecondaryKey() OptionalString { return u.secondary }

// GetIP returns the IP address attribute of the user, if any.
func (u User) GetIP() OptionalString { return u.ip }

// GetCountry returns the country attribute of the user, if any.
func (u User) GetCountry() OptionalString { return u.country }

// GetEmail returns the email address attribute of the user, if any.
func (u User) GetEmail() OptionalString { return u.email }

// GetFirstName returns the first name attribute of the user, if any.
func (u User) GetFirstName() OptionalString { return u.firstName }

// GetLastName returns the last name attribute of the user, if any.
func (u User) GetLastName() OptionalString { return u.lastName }

// GetAvatar returns the avatar URL attribute of the user, if any.
func (u User) GetAvatar() OptionalString { return u.avatar }

// GetName returns the full name attribute of the user, if any.
func (u User) GetName() OptionalString { return u.name }

// GetAnonymous returns the anonymous attribute of the user.
func (u User) GetAnonymous() bool { return u.anonymous }

// GetAnonymousOptional returns the anonymous attribute along with whether it was set.
func (u User) GetAnonymousOptional() (bool, bool) { return u.anonymous, u.hasAnonymous }

// GetCustom returns a custom attribute of the user by name, and whether it was set.
func (u User) GetCustom(attrName string) (fvalue.Value, bool) {
	if u.custom == nil {
		return fvalue.Null(), false
	}
	v, ok := u.custom[attrName]
	return v, ok
}

// GetAllCustom returns all custom attributes as an object Value.
func (u User) GetAllCustom() fvalue.Value {
	if len(u.custom) == 0 {
		return fvalue.Null()
	}
	b := fvalue.ObjectBuild(len(u.custom))
	for k, v := range u.custom {
		b.Set(k, v)
	}
	return b.Build()
}

// GetCustomKeys returns the keys of all custom attributes that have been set.
func (u User) GetCustomKeys() []string {
	if len(u.custom) == 0 {
		return nil
	}
	keys := make([]string, 0, len(u.custom))
	for k := range u.custom {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetPrivateAttributeNames returns the names of attributes this specific
// user instance has marked private (as opposed to global config settings).
func (u User) GetPrivateAttributeNames() []string { return u.privateAttributeNames }

// ValueOf resolves the named attribute for clause matching: built-ins
// first, then the custom map. The bool is false when the attribute is
// entirely unset.
func (u User) ValueOf(attr string) (interface{}, bool) {
	switch Attribute(attr) {
	case KeyAttribute:
		if u.key == "" {
			return nil, false
		}
		return u.key, true
	case IPAttribute:
		return u.ip.asEmptyInterface()
	case CountryAttribute:
		return u.country.asEmptyInterface()
	case EmailAttribute:
		return u.email.asEmptyInterface()
	case FirstNameAttribute:
		return u.firstName.asEmptyInterface()
	case LastNameAttribute:
		return u.lastName.asEmptyInterface()
	case AvatarAttribute:
		return u.avatar.asEmptyInterface()
	case NameAttribute:
		return u.name.asEmptyInterface()
	case AnonymousAttribute:
		value, ok := u.GetAnonymousOptional()
		return value, ok
	}
	v, ok := u.GetCustom(attr)
	if !ok {
		return nil, false
	}
	return v.InnerValue(), true
}

// String returns a JSON representation, useful for logging.
func (u User) String() string {
	bytes, _ := json.Marshal(struct {
		Key string `json:"key"`
	}{Key: u.key})
	return string(bytes)
}

// UserBuilder constructs Users via the builder pattern. Obtain one with
// NewUserBuilder, chain setters, then call Build(). Not safe for concurrent
// use by multiple goroutines.
type UserBuilder interface {
	Key(value string) UserBuilder
	Secondary(value string) UserBuilderCanMakeAttributePrivate
	IP(value string) UserBuilderCanMakeAttributePrivate
	Country(value string) UserBuilderCanMakeAttributePrivate
	Email(value string) UserBuilderCanMakeAttributePrivate
	FirstName(value string) UserBuilderCanMakeAttributePrivate
	LastName(value string) UserBuilderCanMakeAttributePrivate
	Avatar(value string) UserBuilderCanMakeAttributePrivate
	Name(value string) UserBuilderCanMakeAttributePrivate
	Anonymous(value bool) UserBuilder
	Custom(name string, value fvalue.Value) UserBuilderCanMakeAttributePrivate
	Build() User
}

// UserBuilderCanMakeAttributePrivate extends UserBuilder with
// AsPrivateAttribute, available only on setters for attributes that are
// allowed to be private (Key and Anonymous cannot).
type UserBuilderCanMakeAttributePrivate interface {
	UserBuilder
	AsPrivateAttribute() UserBuilder
}

type userBuilderImpl struct {
	key          string
	secondary    OptionalString
	ip           OptionalString
	country      OptionalString
	email        OptionalString
	firstName    OptionalString
	lastName     OptionalString
	avatar       OptionalString
	name         OptionalString
	anonymous    bool
	hasAnonymous bool
	custom       map[string]fvalue.Value
	privateAttrs map[string]bool
}

type userBuilderCanMakeAttributePrivate struct {
	builder  *userBuilderImpl
	attrName string
}

// NewUserBuilder constructs a new UserBuilder with the given key.
func NewUserBuilder(key string) UserBuilder {
	return &userBuilderImpl{key: key}
}

// NewUserBuilderFromUser constructs a new UserBuilder copying an existing
// user's attributes, for making a modified copy.
func NewUserBuilderFromUser(from User) UserBuilder {
	b := &userBuilderImpl{
		key:          from.key,
		secondary:    from.secondary,
		ip:           from.ip,
		country:      from.country,
		email:        from.email,
		firstName:    from.firstName,
		lastName:     from.lastName,
		avatar:       from.avatar,
		name:         from.name,
		anonymous:    from.anonymous,
		hasAnonymous: from.hasAnonymous,
	}
	if len(from.custom) > 0 {
		b.custom = make(map[string]fvalue.Value, len(from.custom))
		for k, v := range from.custom {
			b.custom[k] = v
		}
	}
	if len(from.privateAttributeNames) > 0 {
		b.privateAttrs = make(map[string]bool, len(from.privateAttributeNames))
		for _, name := range from.privateAttributeNames {
			b.privateAttrs[name] = true
		}
	}
	return b
}

func (b *userBuilderImpl) canMakeAttributePrivate(attrName string) UserBuilderCanMakeAttributePrivate {
	return &userBuilderCanMakeAttributePrivate{builder: b, attrName: attrName}
}

func (b *userBuilderImpl) Key(value string) UserBuilder {
	b.key = value
	return b
}

func (b *userBuilderImpl) Secondary(value string) UserBuilderCanMakeAttributePrivate {
	b.secondary = NewOptionalStringWithValue(value)
	return b.canMakeAttributePrivate(string(SecondaryKeyAttribute))
}

func (b *userBuilderImpl) IP(value string) UserBuilderCanMakeAttributePrivate {
	b.ip = NewOptionalStringWithValue(value)
	return b.canMakeAttributePrivate(string(IPAttribute))
}

func (b *userBuilderImpl) Country(value string) UserBuilderCanMakeAttributePrivate {
	b.country = NewOptionalStringWithValue(value)
	return b.canMakeAttributePrivate(string(CountryAttribute))
}

func (b *userBuilderImpl) Email(value string) UserBuilderCanMakeAttributePrivate {
	b.email = NewOptionalStringWithValue(value)
	return b.canMakeAttributePrivate(string(EmailAttribute))
}

func (b *userBuilderImpl) FirstName(value string) UserBuilderCanMakeAttributePrivate {
	b.firstName = NewOptionalStringWithValue(value)
	return b.canMakeAttributePrivate(string(FirstNameAttribute))
}

func (b *userBuilderImpl) LastName(value string) UserBuilderCanMakeAttributePrivate {
	b.lastName = NewOptionalStringWithValue(value)
	return b.canMakeAttributePrivate(string(LastNameAttribute))
}

func (b *userBuilderImpl) Avatar(value string) UserBuilderCanMakeAttributePrivate {
	b.avatar = NewOptionalStringWithValue(value)
	return b.canMakeAttributePrivate(string(AvatarAttribute))
}

func (b *userBuilderImpl) Name(value string) UserBuilderCanMakeAttributePrivate {
	b.name = NewOptionalStringWithValue(value)
	return b.canMakeAttributePrivate(string(NameAttribute))
}

func (b *userBuilderImpl) Anonymous(value bool) UserBuilder {
	b.anonymous = value
	b.hasAnonymous = true
	return b
}

func (b *userBuilderImpl) Custom(name string, value fvalue.Value) UserBuilderCanMakeAttributePrivate {
	if b.custom == nil {
		b.custom = make(map[string]fvalue.Value)
	}
	b.custom[name] = value
	return b.canMakeAttributePrivate(name)
}

func (b *userBuilderImpl) Build() User {
	u := User{
		key:          b.key,
		secondary:    b.secondary,
		ip:           b.ip,
		country:      b.country,
		email:        b.email,
		firstName:    b.firstName,
		lastName:     b.lastName,
		avatar:       b.avatar,
		name:         b.name,
		anonymous:    b.anonymous,
		hasAnonymous: b.hasAnonymous,
	}
	if len(b.custom) > 0 {
		c := make(map[string]fvalue.Value, len(b.custom))
		for k, v := range b.custom {
			c[k] = v
		}
		u.custom = c
	}
	if len(b.privateAttrs) > 0 {
		names := make([]string, 0, len(b.privateAttrs))
		for name, on := range b.privateAttrs {
			if on {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		u.privateAttributeNames = names
	}
	return u
}

func (b *userBuilderCanMakeAttributePrivate) AsPrivateAttribute() UserBuilder {
	if b.builder.privateAttrs == nil {
		b.builder.privateAttrs = make(map[string]bool)
	}
	b.builder.privateAttrs[b.attrName] = true
	return b.builder
}

func (b *userBuilderCanMakeAttributePrivate) Key(value string) UserBuilder {
	return b.builder.Key(value)
}
func (b *userBuilderCanMakeAttributePrivate) Secondary(value string) UserBuilderCanMakeAttributePrivate {
	return b.builder.Secondary(value)
}
func (b *userBuilderCanMakeAttributePrivate) IP(value string) UserBuilderCanMakeAttributePrivate {
	return b.builder.IP(value)
}
func (b *userBuilderCanMakeAttributePrivate) Country(value string) UserBuilderCanMakeAttributePrivate {
	return b.builder.Country(value)
}
func (b *userBuilderCanMakeAttributePrivate) Email(value string) UserBuilderCanMakeAttributePrivate {
	return b.builder.Email(value)
}
func (b *userBuilderCanMakeAttributePrivate) FirstName(value string) UserBuilderCanMakeAttributePrivate {
	return b.builder.FirstName(value)
}
func (b *userBuilderCanMakeAttributePrivate) LastName(value string) UserBuilderCanMakeAttributePrivate {
	return b.builder.LastName(value)
}
func (b *userBuilderCanMakeAttributePrivate) Avatar(value string) UserBuilderCanMakeAttributePrivate {
	return b.builder.Avatar(value)
}
func (b *userBuilderCanMakeAttributePrivate) Name(value string) UserBuilderCanMakeAttributePrivate {
	return b.builder.Name(value)
}
func (b *userBuilderCanMakeAttributePrivate) Anonymous(value bool) UserBuilder {
	return b.builder.Anonymous(value)
}
func (b *userBuilderCanMakeAttributePrivate) Custom(name string, value fvalue.Value) UserBuilderCanMakeAttributePrivate {
	return b.builder.Custom(name, value)
}
func (b *userBuilderCanMakeAttributePrivate) Build() User {
	return b.builder.Build()
}
