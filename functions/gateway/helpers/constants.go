package helpers

type AWSReqKey string

const ApiGwV2ReqKey AWSReqKey = "ApiGwV2Req"

type WalletKey string

// WalletAddressKey carries the authenticated wallet address through the
// request context. Handlers read it and pass the address explicitly into
// services, no service reaches into the context for identity.
const WalletAddressKey WalletKey = "WalletAddress"

const EventsTablePrefix = "Events"
const RsvpsTablePrefix = "EventRsvps"
const ProfilesTablePrefix = "Profiles"

const RsvpUserIdGsiName = "userIdGsi"

const EVENT_ID_KEY string = "event_id"
const RSVP_ID_KEY string = "rsvp_id"
const USER_ID_KEY string = "user_id"
const ADDRESS_KEY string = "address"

// CheckinURIScheme is the payload encoded into attendance QR codes. The
// server only returns the payload string, rendering is a client concern.
const CheckinURIScheme = "soulpass://event/%s/attendance"

const DefaultEventPageLimit = 25
const MaxEventPageLimit = 100
