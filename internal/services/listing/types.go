// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package listing

// ArchiveMember identifies one unit of work in the remote dataset
// collection. Size is the declared size from the listing; remote
// listings are not always byte-exact.
type ArchiveMember struct {
	Name string
	Size int64
}
