// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package policy holds the immutable trust policy applied to every connection
// and helpers to load a CT log list from its published JSON form.
package policy
