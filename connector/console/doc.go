// Package console provides a modscot.Connector reading events as JSON lines and a modscot.Platform
// writing every platform action as a JSON line. It lets a modscot instance run without a chat
// platform, driven by a terminal or a script.
//
// An inbound line looks like:
//
//	{"kind":"command","customId":"support:channel","communityId":"c1","actor":{"id":"u1","permissions":["Administrator"]},"fields":{"channel":"cat-1"}}
//
// Replies, forms and platform actions are written as records with a "type" attribute.
package console
