// Package metadata embeds the type information of a WIT world into a core
// module as component-type custom sections, the input the component encoder
// expects.
package metadata
