// Package core generates customer workbooks, mails the latest one and serves
// generated files for download.
//
// # Flow
//
// A generate request either builds a new workbook or, when its action is
// "enviar", mails the most recently written workbook:
//
//  1. [Service.Generate] clamps the row count, builds the rows with the
//     service's random source and clock, writes Clientes_<yyyyMMddHHmmss>.xlsx
//     and renders an HTML preview of it.
//  2. [Service.SendLatest] picks the newest Clientes_*.xlsx by modification
//     time and hands it to the mailer.
//  3. [Service.OpenDownload] resolves a file name inside the output directory.
//     After serving it the caller should invoke [Service.DownloadServed], which
//     starts a background retention sweep.
//
// Preview rendering and attachment problems never fail a request. Workbook
// generation is bounded by a [JobLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each category has a code for support reference:
//
//   - AUTH001-AUTH002: login and session problems
//   - REG001-REG004: registration rejections
//   - STO001-STO003: user store failures
//   - GEN001-GEN003: workbook generation failures
//   - FILE001-FILE002: download problems
//   - RATE001: throttling
package core
