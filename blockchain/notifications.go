// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"sync"

	"github.com/ledgerbase/ledgerd/wire"
)

// NotificationType identifies the kind of event carried by a Notification.
type NotificationType int

// NotificationCallback is a caller-supplied function invoked synchronously,
// in chain-event order, for every notification the chain emits.
type NotificationCallback func(*Notification)

const (
	// NTBlockConnected indicates a block has been connected to the main
	// chain (directly, or as part of a reorganization).
	NTBlockConnected NotificationType = iota

	// NTBlockDisconnected indicates a block has been disconnected from
	// the main chain as part of a reorganization.
	NTBlockDisconnected

	// NTReorganization indicates the main chain has switched from one
	// branch to another.
	NTReorganization
)

var notificationTypeStrings = map[NotificationType]string{
	NTBlockConnected:    "NTBlockConnected",
	NTBlockDisconnected: "NTBlockDisconnected",
	NTReorganization:    "NTReorganization",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// Notification is delivered to every subscriber's callback; Data's concrete
// type depends on Type as documented on each *NotificationData type below.
type Notification struct {
	Type NotificationType
	Data interface{}
}

// BlockConnectedNotificationData accompanies NTBlockConnected.
type BlockConnectedNotificationData struct {
	Entry *ChainEntry
	Block *wire.MsgBlock
}

// BlockDisconnectedNotificationData accompanies NTBlockDisconnected.
type BlockDisconnectedNotificationData struct {
	Entry *ChainEntry
	Block *wire.MsgBlock
}

// ReorganizationNotificationData accompanies NTReorganization, fired once
// after every disconnect/connect in the reorg batch has been delivered.
type ReorganizationNotificationData struct {
	OldTip wire.BlockHeader
	NewTip wire.BlockHeader
}

// Subscribe registers callback to be invoked for every future notification.
// Callbacks run synchronously on the chain lock's goroutine, in emission
// order; a slow or blocking callback delays block ingest.
func (c *Chain) Subscribe(callback NotificationCallback) {
	c.notificationsLock.Lock()
	defer c.notificationsLock.Unlock()
	c.notifications = append(c.notifications, callback)
}

func (c *Chain) sendNotification(typ NotificationType, data interface{}) {
	n := Notification{Type: typ, Data: data}
	c.notificationsLock.RLock()
	defer c.notificationsLock.RUnlock()
	for _, callback := range c.notifications {
		callback(&n)
	}
}
