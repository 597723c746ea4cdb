package server

// indexPage is the demo search page. The script mirrors the address bar over
// /ws, applies navigation frames with the History API and renders state
// frames into the form.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>urlstate demo</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 40rem; margin: 2rem auto; }
label { display: block; margin: 0.5rem 0; }
pre { background: #f4f4f4; padding: 0.5rem; }
</style>
</head>
<body>
<h1>Search</h1>
<label>Query <input id="q" type="search"></label>
<label>Sort
  <select id="sort">
    <option value="relevance">Relevance</option>
    <option value="price">Price</option>
    <option value="newest">Newest</option>
  </select>
</label>
<label>Page <input id="page" type="number" min="1"></label>
<label>Tags <input id="tags" placeholder="comma separated"></label>
<button id="reset">Reset</button>
<h2>Address</h2>
<pre id="address"></pre>
<h2>State</h2>
<pre id="state"></pre>
<script>
(function () {
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  var ws = new WebSocket(proto + "//" + location.host + "/ws" + location.search);
  var $ = function (id) { return document.getElementById(id); };

  function showAddress() { $("address").textContent = location.search || "(empty)"; }
  function send(frame) { ws.send(JSON.stringify(frame)); }
  function set(key, value) { send({ type: "set", key: key, value: value }); }

  ws.onmessage = function (ev) {
    var f = JSON.parse(ev.data);
    if (f.type === "push" || f.type === "replace") {
      var url = location.pathname + (f.search ? "?" + f.search : "");
      if (f.type === "push") history.pushState(null, "", url);
      else history.replaceState(null, "", url);
      showAddress();
    } else if (f.type === "state") {
      var v = f.values;
      if (document.activeElement !== $("q")) $("q").value = v.q || "";
      $("sort").value = v.sort;
      $("page").value = v.page;
      if (document.activeElement !== $("tags")) $("tags").value = (v.tags || []).join(",");
      $("state").textContent = JSON.stringify(v, null, 2);
    } else if (f.type === "error") {
      console.warn(f.code, f.message);
    }
  };

  window.addEventListener("popstate", function () {
    send({ type: "location", search: location.search });
    showAddress();
  });

  $("q").addEventListener("input", function (e) { set("q", e.target.value); });
  $("sort").addEventListener("change", function (e) { set("sort", e.target.value); });
  $("page").addEventListener("change", function (e) { set("page", parseInt(e.target.value, 10) || 0); });
  $("tags").addEventListener("input", function (e) {
    var tags = e.target.value.split(",").map(function (t) { return t.trim(); }).filter(Boolean);
    set("tags", tags);
  });
  $("reset").addEventListener("click", function () {
    ["q", "sort", "page", "tags"].forEach(function (k) { send({ type: "clear", key: k }); });
  });

  showAddress();
})();
</script>
</body>
</html>
`
